package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/OpenGeoFlow/geoflow/internal/config"
	"github.com/OpenGeoFlow/geoflow/internal/database"
	"github.com/OpenGeoFlow/geoflow/internal/workflow"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/definition"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/model"
	"github.com/OpenGeoFlow/geoflow/internal/workflow/store"
)

// Handler serves the workflow HTTP API.
type Handler struct {
	store       *store.Store
	factory     *workflow.Factory
	workflowCfg config.WorkflowConfig
	db          *gorm.DB
}

func NewHandler(s *store.Store, factory *workflow.Factory, workflowCfg config.WorkflowConfig, db *gorm.DB) *Handler {
	return &Handler{store: s, factory: factory, workflowCfg: workflowCfg, db: db}
}

// analysisRequest is the POST /analysis payload. geoJson is kept as raw JSON
// and handed verbatim to the workflow's tasks.
type analysisRequest struct {
	ClientID     string          `json:"clientId" binding:"required"`
	GeoJSON      json.RawMessage `json:"geoJson" binding:"required"`
	WorkflowName string          `json:"workflowName"`
}

// HandleCreateAnalysis accepts a GeoJSON payload, materializes a workflow from
// the named definition (or the configured default) and returns 202 with the
// workflow ID. Execution happens asynchronously in the dispatcher.
func (h *Handler) HandleCreateAnalysis(c *gin.Context) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	name := req.WorkflowName
	if name == "" {
		name = h.workflowCfg.DefaultWorkflow
	}

	def, err := definition.Load(h.workflowCfg.DefinitionsDir, name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": workflow.NewInvalidWorkflowError("unknown workflow definition: %s", name).Error()})
		return
	}

	wf, err := h.factory.Create(c.Request.Context(), def, req.ClientID, string(req.GeoJSON))
	if err != nil {
		var invalid *workflow.InvalidWorkflowError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
			return
		}
		slog.ErrorContext(c.Request.Context(), "failed to create workflow", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create workflow"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"workflowId": wf.ID,
		"message":    "workflow accepted for processing",
	})
}

// HandleGetWorkflowStatus returns the workflow status together with task
// completion counts.
func (h *Handler) HandleGetWorkflowStatus(c *gin.Context) {
	wf, ok := h.loadWorkflow(c)
	if !ok {
		return
	}

	completed := 0
	for _, task := range wf.Tasks {
		if task.Status == model.TaskStatusCompleted {
			completed++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"workflowId":     wf.ID,
		"status":         wf.Status,
		"completedTasks": completed,
		"totalTasks":     len(wf.Tasks),
	})
}

// HandleGetWorkflowResults returns the finalResult of a completed workflow.
// Workflows that are not yet completed yield 400.
func (h *Handler) HandleGetWorkflowResults(c *gin.Context) {
	wf, ok := h.loadWorkflow(c)
	if !ok {
		return
	}

	if wf.Status != model.WorkflowStatusCompleted || wf.FinalResult == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message":    "workflow results are not available yet",
			"workflowId": wf.ID,
			"status":     wf.Status,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"workflowId":  wf.ID,
		"status":      wf.Status,
		"finalResult": model.ParseOrRaw(*wf.FinalResult),
	})
}

// HandleHealthz reports process and database health.
func (h *Handler) HandleHealthz(c *gin.Context) {
	if err := database.HealthCheck(h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// loadWorkflow parses the :id param and loads the workflow with its tasks,
// writing the error response itself when it fails.
func (h *Handler) loadWorkflow(c *gin.Context) (*model.Workflow, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
		return nil, false
	}

	wf, err := h.store.GetWorkflowWithTasks(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "workflow not found"})
			return nil, false
		}
		slog.ErrorContext(c.Request.Context(), "failed to load workflow", "workflowID", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load workflow"})
		return nil, false
	}
	return wf, true
}
