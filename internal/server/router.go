package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(s.log))
	if s.deps.Metrics != nil {
		r.Use(s.deps.Metrics.Middleware())
		r.GET("/metrics", s.deps.Metrics.Handler())
	}

	r.GET("/healthcheck", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	api := r.Group("/api")
	{
		api.GET("/document", s.getDocument)
		api.PUT("/template", s.putTemplate)
		api.PUT("/meta", s.putMeta)

		api.POST("/subjects", s.postSubject)
		api.DELETE("/subjects/:name", s.deleteSubject)
		api.PUT("/subjects/active", s.putActiveSubject)

		api.POST("/blocks", s.postBlock)
		api.PUT("/blocks/:id", s.putBlock)
		api.DELETE("/blocks/:id", s.deleteBlock)
		api.POST("/blocks/:id/move", s.moveBlock)

		api.GET("/config", s.getConfig)
		api.PUT("/config/logo", s.putLogo)

		api.GET("/preview", s.getPreview)
		api.POST("/preview/next", s.previewNext)
		api.POST("/preview/previous", s.previewPrevious)

		api.GET("/sheets/:n/image", s.sheetImage)
		api.GET("/export", s.exportPDF)
	}
	return r
}
