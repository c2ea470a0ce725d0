package main

import (
	"errors"
	"net/http"
	"time"

	"bitbucket.org/mmdatafocus/cortes_backend/config"
	"bitbucket.org/mmdatafocus/cortes_backend/dbase"
	"bitbucket.org/mmdatafocus/cortes_backend/models"
	"bitbucket.org/mmdatafocus/cortes_backend/utils"
	"bitbucket.org/mmdatafocus/cortes_backend/workflow"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// api exposes the reconciliation engine and the table diagnostics to the
// operator UI. It renders nothing: spreadsheets, PDFs and history snapshots
// are downstream collaborators consuming these JSON payloads.
type api struct {
	logger *logrus.Logger
	runs   *workflow.RunManager
}

func newAPI(logger *logrus.Logger, runs *workflow.RunManager) *api {
	return &api{logger: logger, runs: runs}
}

func (a *api) register(r *gin.Engine) {
	grp := r.Group("/api")
	grp.GET("/branches", a.listBranches)
	grp.POST("/settlement/run", a.runSettlement)
	grp.POST("/settlement/run-async", a.runSettlementAsync)
	grp.GET("/settlement/run/:id", a.runProgress)
	grp.DELETE("/settlement/run/:id", a.cancelRun)
	grp.GET("/tables/inspect", a.inspectTable)
	grp.POST("/tables/search", a.searchTable)
}

type settlementRequest struct {
	Branch string `json:"branch" binding:"required"`
	Date   string `json:"date" binding:"required,datetime=2006-01-02"`
}

func (a *api) listBranches(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"branches": models.KnownBranches()})
}

func (a *api) runSettlement(c *gin.Context) {
	var req settlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	result, err := workflow.ProcessSettlementWorkflow(a.logger, workflow.InputFromConfig(), a.runs.Codec(), req.Branch, date)
	if err != nil {
		a.settlementError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *api) runSettlementAsync(c *gin.Context) {
	var req settlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	date, _ := time.Parse("2006-01-02", req.Date)

	id, err := a.runs.Start(workflow.InputFromConfig(), req.Branch, date)
	if err != nil {
		a.settlementError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run_id": id})
}

func (a *api) runProgress(c *gin.Context) {
	state, err := a.runs.Progress(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (a *api) cancelRun(c *gin.Context) {
	if err := a.runs.Cancel(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) inspectTable(c *gin.Context) {
	kind := config.TableKind(c.Query("table"))
	path := c.Query("path")
	if path == "" {
		path = config.GetTablePaths().Path(kind)
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table or path query parameter required"})
		return
	}

	info, err := workflow.InspectTable(path, dbase.CodepageFromCandidates(config.CodepageCandidates()), kind)
	if err != nil {
		config.LogError(a.logger, "api.go", "inspectTable", "inspecting table", path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, info)
}

type searchRequest struct {
	Table     string   `json:"table"`
	Path      string   `json:"path"`
	Fields    []string `json:"fields" binding:"required,min=1"`
	Values    []string `json:"values" binding:"required,min=1"`
	Mode      string   `json:"mode" binding:"omitempty,oneof=exact contains"`
	ChunkSize int      `json:"chunk_size"`
}

func (a *api) searchTable(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
		return
	}
	path := req.Path
	if path == "" {
		path = config.GetTablePaths().Path(config.TableKind(req.Table))
	}
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table or path required"})
		return
	}
	mode := workflow.MatchMode(req.Mode)
	if mode == "" {
		mode = workflow.MatchExact
	}

	result, err := workflow.SearchTable(a.logger, path, dbase.CodepageFromCandidates(config.CodepageCandidates()), req.Fields, req.Values, mode, req.ChunkSize)
	if err != nil {
		if errors.Is(err, utils.ErrTableNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (a *api) settlementError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrConfigIncomplete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		config.LogError(a.logger, "api.go", "settlementError", "settlement run failed", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
