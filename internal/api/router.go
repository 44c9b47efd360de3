package api

import (
	"github.com/gin-gonic/gin"

	"github.com/OpenGeoFlow/geoflow/internal/config"
	"github.com/OpenGeoFlow/geoflow/internal/middleware"
)

// NewRouter builds the gin engine with CORS applied and all routes mounted.
func NewRouter(handler *Handler, corsCfg *config.CORSConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(corsCfg))

	router.POST("/analysis", handler.HandleCreateAnalysis)
	router.GET("/workflow/:id/status", handler.HandleGetWorkflowStatus)
	router.GET("/workflow/:id/results", handler.HandleGetWorkflowResults)
	router.GET("/healthz", handler.HandleHealthz)

	return router
}
