// Package api exposes the tag index over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gcbaptista/tagdex/index"
	"github.com/gcbaptista/tagdex/internal/analytics"
	"github.com/gcbaptista/tagdex/internal/jobs"
	"github.com/gcbaptista/tagdex/model"
	"github.com/gcbaptista/tagdex/services"
)

const maxRequestBodySize = 1 << 20 // 1 MiB; query bodies are small

// API holds dependencies for API handlers, primarily the index engine.
type API struct {
	engine        services.IndexManager
	jobs          *jobs.Manager
	analytics     *analytics.Service
	checkpointDir string
	optimizeAfter bool
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager, jobManager *jobs.Manager, checkpointDir string, optimizeAfter bool) *API {
	return &API{
		engine:        engine,
		jobs:          jobManager,
		analytics:     analytics.NewService(),
		checkpointDir: checkpointDir,
		optimizeAfter: optimizeAfter,
	}
}

// SetupRoutes defines all the API routes for the tag index.
func SetupRoutes(router *gin.Engine, apiHandler *API) {
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(RequestSizeLimitMiddleware(maxRequestBodySize))

	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/stats", apiHandler.GetStatsHandler)
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/query", apiHandler.QueryHandler)
	router.GET("/documents/:documentId/tags", apiHandler.GetDocumentTagsHandler)

	router.POST("/ingest", apiHandler.IngestHandler)
	router.POST("/optimize", apiHandler.OptimizeHandler)
	router.POST("/checkpoint", apiHandler.CheckpointHandler)

	jobRoutes := router.Group("/jobs")
	{
		jobRoutes.GET("", apiHandler.ListJobsHandler)
		jobRoutes.GET("/:jobId", apiHandler.GetJobHandler)
	}
}

// HealthCheckHandler reports liveness.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStatsHandler reports index-level counters.
func (api *API) GetStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, services.Stats{
		DocumentCount:       api.engine.DocumentCount(),
		TagCount:            api.engine.TagCount(),
		LastProcessedOffset: api.engine.LastProcessedOffset(),
	})
}

// GetAnalyticsHandler returns the query analytics snapshot.
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.analytics.GetSnapshot())
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Tags      []string `json:"tags"`
	Operation string   `json:"operation"`
}

// QueryHandler executes a set-algebra query over tag bitmaps.
// Request Body: QueryRequest
func (api *API) QueryHandler(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	op, err := index.ParseOperation(req.Operation)
	if err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, err.Error())
		return
	}
	if len(req.Tags) == 0 {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "at least one tag is required")
		return
	}

	started := time.Now()
	docs := api.engine.Query(req.Tags, op)
	took := time.Since(started)

	queryID := api.analytics.TrackQuery(string(op), len(req.Tags), len(docs), took)

	c.JSON(http.StatusOK, services.QueryResult{
		QueryID:   queryID,
		Operation: string(op),
		Documents: docs,
		Count:     len(docs),
		TookMs:    float64(took.Microseconds()) / 1000.0,
	})
}

// GetDocumentTagsHandler returns the tags of one document. An unknown
// document is not an error: it yields an empty tag list.
func (api *API) GetDocumentTagsHandler(c *gin.Context) {
	documentID := c.Param("documentId")
	tags := api.engine.TagsFor(documentID)
	c.JSON(http.StatusOK, gin.H{"document": documentID, "tags": tags, "count": len(tags)})
}

// IngestHandler starts an asynchronous incremental ingestion pass.
func (api *API) IngestHandler(c *gin.Context) {
	jobID := api.jobs.CreateJob(model.JobTypeIngest, nil)
	err := api.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return api.engine.LoadIncremental(api.optimizeAfter)
	})
	if err != nil {
		SendJobExecutionError(c, "ingest", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// OptimizeHandler starts an asynchronous incremental load with the layout
// optimizer enabled. New data in the file is ingested first; when the file
// has nothing new, the pass does no work and the optimizer does not run.
func (api *API) OptimizeHandler(c *gin.Context) {
	jobID := api.jobs.CreateJob(model.JobTypeOptimize, nil)
	err := api.jobs.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return api.engine.LoadIncremental(true)
	})
	if err != nil {
		SendJobExecutionError(c, "optimize", err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// CheckpointHandler saves the index checkpoint synchronously.
func (api *API) CheckpointHandler(c *gin.Context) {
	if err := api.engine.Save(api.checkpointDir); err != nil {
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed,
			"Failed to save checkpoint: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkpoint_dir": api.checkpointDir})
}

// ListJobsHandler lists tracked jobs.
func (api *API) ListJobsHandler(c *gin.Context) {
	var statusFilter *model.JobStatus
	if s := c.Query("status"); s != "" {
		status := model.JobStatus(s)
		statusFilter = &status
	}
	jobList := api.jobs.ListJobs(statusFilter)
	c.JSON(http.StatusOK, gin.H{"jobs": jobList, "count": len(jobList)})
}

// GetJobHandler returns one job by id.
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")
	job, err := api.jobs.GetJob(jobID)
	if err != nil {
		SendJobNotFoundError(c, jobID)
		return
	}
	c.JSON(http.StatusOK, job)
}
