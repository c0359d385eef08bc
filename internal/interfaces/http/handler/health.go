package handler

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/unimerch/backend/internal/interfaces/http/dto"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck probes one dependency
type HealthCheck struct {
	Name string
	// Critical dependencies turn the service unhealthy when they fail.
	// Others only degrade it.
	Critical bool
	Check    func(ctx context.Context) error
}

// HealthResponse reports the service and dependency state
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks"`
}

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	BaseHandler
	version   string
	startTime time.Time
	checks    []HealthCheck
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, startTime: time.Now(), checks: checks}
}

// Health godoc
// @Summary      Service health
// @Description  Pings the database and redis. A database failure answers 503.
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]string, len(h.checks)),
	}

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		unhealthy bool
	)
	for _, check := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := check.Check(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				resp.Checks[check.Name] = "up"
				return
			}
			resp.Checks[check.Name] = "down: " + err.Error()
			if check.Critical {
				unhealthy = true
			} else if resp.Status == "ok" {
				resp.Status = "degraded"
			}
		}()
	}
	wg.Wait()

	if unhealthy {
		resp.Status = "unhealthy"
		body := dto.NewErrorResponse(dto.ErrCodeUnavailable, "Service unavailable", getRequestID(c))
		body.Data = resp
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	h.Success(c, "", resp)
}

// Live godoc
// @Summary      Liveness probe
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response
// @Router       /health/live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	h.Success(c, "", gin.H{"status": "ok"})
}
