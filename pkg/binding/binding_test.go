package binding

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"katydid-model-validation/pkg/validation"
	"katydid-model-validation/pkg/validation/metadata"
	"katydid-model-validation/pkg/validation/provider"
)

type createUser struct {
	Username string `json:"username" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(engine *validation.Engine, binder Binder) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.POST("/users", func(c *gin.Context) {
		var req createUser
		if !BindAndValidate(c, binder, engine, &req) {
			return
		}
		c.JSON(http.StatusOK, req)
	})
	return r
}

func newEngine() *validation.Engine {
	return validation.NewEngine(metadata.NewCachedProvider(), validation.NewRegistry(provider.NewTagProvider()))
}

func TestBindAndValidate(t *testing.T) {
	router := newRouter(newEngine(), JSON)

	tests := []struct {
		name   string
		body   string
		status int
		fields []string
	}{
		{name: "通过", body: `{"username":"alice","email":"a@b.com"}`, status: http.StatusOK},
		{name: "校验失败", body: `{"username":"al","email":"bad"}`, status: http.StatusBadRequest, fields: []string{"Username", "Email"}},
		{name: "缺少字段", body: `{}`, status: http.StatusBadRequest, fields: []string{"Username", "Email"}},
		{name: "JSON格式错误", body: `{`, status: http.StatusBadRequest, fields: []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				return
			}

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			fields := make([]string, 0, len(resp.Errors))
			for _, item := range resp.Errors {
				fields = append(fields, item.Field)
				assert.NotEmpty(t, item.Message)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestBindAndValidate_SkipBinding(t *testing.T) {
	router := newRouter(newEngine(), SkipBinding)

	req := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{"username":"alice","email":"a@b.com"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// 请求体被忽略，空模型校验失败
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBindAndValidate_NoEngine(t *testing.T) {
	router := newRouter(nil, JSON)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSkipBinding(t *testing.T) {
	target := createUser{Username: "keep"}
	assert.NoError(t, SkipBinding.Bind(nil, &target))
	assert.Equal(t, "keep", target.Username)
}

func TestNewErrorResponse(t *testing.T) {
	resp := NewErrorResponse(errors.New("boom"))
	assert.Equal(t, []ErrorItem{{Message: "boom"}}, resp.Errors)

	resp = NewErrorResponse(validation.ValidationErrors{validation.NewFieldError("Profile.City", "required", "m")})
	assert.Equal(t, []ErrorItem{{Field: "Profile.City", Message: "m"}}, resp.Errors)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("生成新ID", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

		id := rec.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, seen)
	})

	t.Run("沿用传入的ID", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))
	})

	t.Run("非法ID被替换", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set(RequestIDHeader, "not-a-uuid")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
	})
}

func TestLogger(t *testing.T) {
	observed, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(RequestID(), Logger(zap.New(observed)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, 1, logs.FilterMessage("request handled").Len())
	assert.Equal(t, 1, logs.FilterMessage("request failed").Len())
}
