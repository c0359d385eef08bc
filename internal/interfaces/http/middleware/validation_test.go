package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unimerch/backend/internal/interfaces/http/dto"
)

type signupForm struct {
	Username string `json:"username" binding:"required,min=3,max=50,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,strong_password"`
	Phone    string `json:"phone" binding:"omitempty,vn_phone"`
	Age      int    `json:"age" binding:"omitempty,gte=16"`
}

func newValidationRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req signupForm
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusOK)
	})
	return router
}

func postJSON(router http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestValidation(t *testing.T) {
	router := newValidationRouter()

	t.Run("valid input", func(t *testing.T) {
		w := postJSON(router, `{"username":"alice_01","email":"alice@uni.edu","password":"Secret1","phone":"0912345678"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("field errors use json names", func(t *testing.T) {
		w := postJSON(router, `{"username":"al ice","email":"nope","password":"secret","phone":"12345"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)

		got := map[string]string{}
		for _, d := range resp.Errors {
			got[d.Field] = d.Message
		}
		assert.Equal(t, map[string]string{
			"username": "Username can only contain letters, numbers and underscores",
			"email":    "Invalid email format",
			"password": "Password must be at least 6 characters with one lowercase letter, one uppercase letter and one number",
			"phone":    "Please provide a valid Vietnamese phone number",
		}, got)
	})

	t.Run("wrong json type", func(t *testing.T) {
		w := postJSON(router, `{"username":"alice","email":"a@b.co","password":"Secret1","age":"old"}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"field":"age"`)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := postJSON(router, `{"username":`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), `"code":"BAD_REQUEST"`)
	})
}

func TestStrongPassword(t *testing.T) {
	tests := map[string]bool{
		"Secret1": true,
		"aB3xyz":  true,
		"secret1": false,
		"SECRET1": false,
		"Secrets": false,
		"Se1":     false,
	}
	for pw, want := range tests {
		assert.Equal(t, want, strongPassword(pw), pw)
	}
}
