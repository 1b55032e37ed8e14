package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoiceocr/web"
)

func (s *Server) registerRoutes() {
	s.engine.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.IndexHTML)
	})

	api := s.engine.Group("/api")
	{
		api.GET("/categories", s.listCategories)

		// Create Template page
		api.POST("/extract", s.extractLines)
		api.GET("/templates", s.listTemplates)
		api.POST("/templates", s.saveTemplate)
		api.DELETE("/templates/:name", s.deleteTemplate)

		// Use Template page
		api.POST("/apply", s.applyTemplate)
		api.POST("/export", s.exportResult)
	}
}

func (s *Server) listCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": Categories})
}
