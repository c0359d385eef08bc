package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/unimerch/backend/internal/application/report"
)

// StatsHandler serves marketplace statistics
type StatsHandler struct {
	BaseHandler
	statsService *report.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *report.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Dashboard godoc
// @Summary      Admin dashboard
// @Description  Totals, orders per status, top products and recent orders
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response{data=report.Dashboard}
// @Security     BearerAuth
// @Router       /stats/dashboard [get]
func (h *StatsHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.statsService.Dashboard(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", dashboard)
}

// Seller godoc
// @Summary      Seller summary
// @Description  Available to the seller and to admins
// @Tags         stats
// @Produce      json
// @Param        sellerId path string true "Seller ID"
// @Success      200 {object} dto.Response
// @Failure      403 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stats/seller/{sellerId} [get]
func (h *StatsHandler) Seller(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	sellerID, ok := h.pathUUID(c, "sellerId")
	if !ok {
		return
	}
	summary, err := h.statsService.Seller(c.Request.Context(), tenantID(c), actor, sellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", summary)
}

// Products godoc
// @Summary      Product statistics
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /stats/products [get]
func (h *StatsHandler) Products(c *gin.Context) {
	stats, err := h.statsService.Products(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// Users godoc
// @Summary      User statistics
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /stats/users [get]
func (h *StatsHandler) Users(c *gin.Context) {
	stats, err := h.statsService.Users(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// Orders godoc
// @Summary      Order analysis
// @Description  Per status breakdown, conversion funnel and summary
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /stats/orders [get]
func (h *StatsHandler) Orders(c *gin.Context) {
	stats, err := h.statsService.Orders(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// Revenue godoc
// @Summary      Order revenue series
// @Tags         stats
// @Produce      json
// @Param        period query string false "Bucket size" Enums(hour, day, week, month, year)
// @Param        limit  query int    false "Number of buckets (1-365)"
// @Success      200 {object} dto.Response{data=report.SalesReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stats/revenue [get]
func (h *StatsHandler) Revenue(c *gin.Context) {
	h.revenue(c, c.Query("period"))
}

// Sales godoc
// @Summary      Order revenue series for a period
// @Tags         stats
// @Produce      json
// @Param        period path  string true  "Bucket size" Enums(hour, day, week, month, year)
// @Param        limit  query int    false "Number of buckets (1-365)"
// @Success      200 {object} dto.Response{data=report.SalesReport}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stats/sales/{period} [get]
func (h *StatsHandler) Sales(c *gin.Context) {
	h.revenue(c, c.Param("period"))
}

func (h *StatsHandler) revenue(c *gin.Context, period string) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	sales, err := h.statsService.Revenue(c.Request.Context(), tenantID(c), period, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", sales)
}

// Categories godoc
// @Summary      Category performance
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /stats/categories [get]
func (h *StatsHandler) Categories(c *gin.Context) {
	stats, err := h.statsService.Categories(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// Reviews godoc
// @Summary      Review statistics
// @Tags         stats
// @Produce      json
// @Success      200 {object} dto.Response{data=report.ReviewStats}
// @Security     BearerAuth
// @Router       /stats/reviews [get]
func (h *StatsHandler) Reviews(c *gin.Context) {
	stats, err := h.statsService.Reviews(c.Request.Context(), tenantID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", stats)
}

// TopProducts godoc
// @Summary      Best selling products
// @Description  Cancelled orders are excluded
// @Tags         stats
// @Produce      json
// @Param        limit query int false "Number of products (1-50)"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /stats/top-products [get]
func (h *StatsHandler) TopProducts(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	top, err := h.statsService.TopProducts(c.Request.Context(), tenantID(c), limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, "", top)
}
