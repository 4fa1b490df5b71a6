package api

import (
	"docsmith-worker/internal/cache"
	"docsmith-worker/internal/jobs"
	"docsmith-worker/internal/storage"
	"docsmith-worker/internal/validation"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	jobService jobs.JobService,
	dispatcher Dispatcher,
	artifactService *storage.ArtifactService,
	statusCache cache.StatusCache,
) *gin.Engine {
	r := gin.Default()

	r.Use(CORSMiddleware())

	handlers := NewHandlers(jobService, dispatcher, artifactService, statusCache, validation.NewAPIValidator())

	// Routes
	r.GET("/health", handlers.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/jobs", handlers.SubmitJob)
		api.GET("/jobs", handlers.ListJobs)
		api.GET("/jobs/:id", handlers.GetJobStatus)
		api.GET("/jobs/:id/document", handlers.GetJobDocument)
		api.GET("/workers/stats", handlers.GetWorkerStats)
	}

	SetupSwagger(r)

	return r
}
