package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"katydid-model-validation/pkg/binding"
	"katydid-model-validation/pkg/formatting"
	"katydid-model-validation/pkg/validation"
)

// newRouter 创建 HTTP 路由
func newRouter(engine *validation.Engine, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), binding.RequestID(), binding.Logger(log))

	r.GET("/healthz", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/models", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"models": modelNames()})
	})
	r.POST("/validate/:model", func(c *gin.Context) {
		target, ok := newModel(c.Param("model"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, binding.ErrorResponse{
				Errors: []binding.ErrorItem{{Message: "unknown model " + c.Param("model")}},
			})
			return
		}
		if !binding.BindAndValidate(c, binding.JSON, engine, target) {
			return
		}
		if formatting.IsAjaxRequest(c.Request.Header) {
			c.JSON(http.StatusOK, gin.H{"valid": true})
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}
