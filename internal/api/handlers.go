package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"deskmate/internal/archive"
	"deskmate/internal/export"
	"deskmate/internal/pages"
	"deskmate/internal/task"
	"deskmate/internal/window"
)

type parseRangesRequest struct {
	Input string `json:"input"`
}

type parseRangesResponse struct {
	Success bool                    `json:"success"`
	Ranges  []pages.RangeDescriptor `json:"ranges"`
	Errors  []string                `json:"errors,omitempty"`
	Pages   []int                   `json:"pages,omitempty"`
	Tagged  []pages.TaggedRange     `json:"tagged,omitempty"`
}

type createWindowRequest struct {
	ID       string        `json:"id" binding:"required"`
	Title    string        `json:"title"`
	Icon     string        `json:"icon"`
	Position *window.Point `json:"position"`
	Size     *window.Size  `json:"size"`
	MinSize  *window.Size  `json:"min_size"`
}

type moveWindowRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type resizeWindowRequest struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Options carries the wiring the handlers need beyond the managers.
type Options struct {
	DataDir string
}

type API struct {
	windows  *window.Manager
	tracker  *task.Tracker
	runner   *task.Runner
	exporter *export.Exporter
	dataDir  string
}

func NewAPI(windows *window.Manager, tracker *task.Tracker, runner *task.Runner, exporter *export.Exporter, opts Options) *API {
	if opts.DataDir == "" {
		opts.DataDir = "data"
	}
	return &API{
		windows:  windows,
		tracker:  tracker,
		runner:   runner,
		exporter: exporter,
		dataDir:  opts.DataDir,
	}
}

// RegisterRoutes registers API routes on the provided gin engine.
func (a *API) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/ranges/parse", a.ParseRanges)

		api.GET("/tasks", a.ListTasks)
		api.GET("/tasks/:type", a.GetTask)
		api.POST("/tasks/:type/reset", a.ResetTask)
		api.POST("/tasks/:type/run", a.RunTask)
		api.GET("/tasks/:type/artifact", a.DownloadArtifact)

		api.GET("/windows", a.ListWindows)
		api.GET("/windows/minimized", a.MinimizedWindows)
		api.POST("/windows", a.CreateWindow)
		api.PATCH("/windows/:id", a.PatchWindow)
		api.POST("/windows/:id/focus", a.windowOp(func(id string) error { _, err := a.windows.Focus(id); return err }))
		api.POST("/windows/:id/close", a.windowOp(a.windows.Close))
		api.POST("/windows/:id/show", a.windowOp(a.windows.Show))
		api.POST("/windows/:id/minimize", a.windowOp(a.windows.Minimize))
		api.POST("/windows/:id/maximize", a.windowOp(a.windows.Maximize))
		api.POST("/windows/:id/restore", a.windowOp(a.windows.Restore))
		api.POST("/windows/:id/move", a.MoveWindow)
		api.POST("/windows/:id/resize", a.ResizeWindow)
	}
	router.GET("/objects/:id/:name", a.ServeObject)
}

// ParseRanges parses a page selection and returns ranges, tags and pages.
func (a *API) ParseRanges(c *gin.Context) {
	var req parseRangesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	result := pages.ParseRangeInput(req.Input)
	resp := parseRangesResponse{
		Success: result.Success,
		Ranges:  result.Ranges,
		Errors:  result.Errors,
	}
	if len(result.Ranges) > 0 {
		resp.Pages = pages.ExpandRangesToPages(result.Ranges)
		resp.Tagged = pages.GroupTagsWithRanges(result.Ranges)
	}
	c.JSON(http.StatusOK, resp)
}

// ListTasks returns every task state in display order.
func (a *API) ListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, a.tracker.All())
}

// GetTask returns one task state.
func (a *API) GetTask(c *gin.Context) {
	taskType := task.Type(c.Param("type"))
	if st, ok := a.tracker.Get(taskType); ok {
		c.JSON(http.StatusOK, st)
		return
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown task type"})
}

// ResetTask starts a fresh idle run and returns its token.
func (a *API) ResetTask(c *gin.Context) {
	taskType := task.Type(c.Param("type"))
	token, err := a.tracker.Reset(taskType)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RunTask accepts uploaded files and starts the batch operation, bundling
// the inputs into a zip artifact that is exported on completion.
func (a *API) RunTask(c *gin.Context) {
	taskType := task.Type(c.Param("type"))
	if !task.ValidType(taskType) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task type"})
		return
	}
	if a.runner.IsBusy() {
		log.Warn().Str("task_type", string(taskType)).Msg("rejecting run: server is at max concurrency")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server busy"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		// validation failure: surfaced in the task state, operation not attempted
		token, resetErr := a.tracker.Reset(taskType)
		if resetErr == nil {
			_ = a.tracker.Fail(taskType, token, "no files selected")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files selected"})
		return
	}

	inputs := make([]archive.Input, 0, len(uploads))
	uploadDir := filepath.Join(a.dataDir, "uploads", string(taskType))
	for _, upload := range uploads {
		stagedPath := filepath.Join(uploadDir, uuid.NewString()+"-"+filepath.Base(upload.Filename))
		if err := c.SaveUploadedFile(upload, stagedPath); err != nil {
			log.Warn().Str("file", upload.Filename).Err(err).Msg("staging upload failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "staging upload failed"})
			return
		}
		inputs = append(inputs, archive.Input{Name: filepath.Base(upload.Filename), Path: stagedPath})
	}

	fileName := fmt.Sprintf("%s-%s.zip", taskType, time.Now().Format("20060102-150405"))
	artifactPath := filepath.Join(a.dataDir, "tasks", string(taskType), fileName)
	token, err := a.runner.Start(taskType, a.bundleJob(artifactPath, fileName, inputs))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Info().Str("task_type", string(taskType)).Int("files", len(inputs)).Msg("task run started")
	c.JSON(http.StatusAccepted, gin.H{"token": token, "file_name": fileName})
}

// bundleJob builds the default job: zip the staged inputs, reporting per-file
// progress and logs through the run context.
func (a *API) bundleJob(artifactPath, fileName string, inputs []archive.Input) task.JobFunc {
	return func(ctx context.Context, rc task.RunContext) (string, string, error) {
		rc.Progress(0, len(inputs))
		results, err := archive.BundleFiles(ctx, artifactPath, inputs, func(done, total int) {
			rc.Progress(done, total)
			rc.Log(task.SeverityProgress, fmt.Sprintf("bundled %d/%d", done, total))
		})
		if err != nil {
			return "", "", err
		}
		for _, res := range results {
			if res.Err != "" {
				rc.Log(task.SeverityError, res.Filename+": "+res.Err)
			}
		}
		return artifactPath, fileName, nil
	}
}

// DownloadArtifact serves the finished artifact.
func (a *API) DownloadArtifact(c *gin.Context) {
	taskType := task.Type(c.Param("type"))
	st, ok := a.tracker.Get(taskType)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown task type"})
		return
	}
	if st.Status != task.StatusCompleted || st.Result == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "artifact not ready"})
		return
	}
	c.FileAttachment(st.Result, st.FileName)
}

// ListWindows returns all windows in registration order.
func (a *API) ListWindows(c *gin.Context) {
	c.JSON(http.StatusOK, a.windows.List())
}

// MinimizedWindows returns the minimized-bar entries.
func (a *API) MinimizedWindows(c *gin.Context) {
	c.JSON(http.StatusOK, a.windows.Minimized())
}

// CreateWindow lazily registers a window; an existing id is a no-op and
// reported as such.
func (a *API) CreateWindow(c *gin.Context) {
	var req createWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	created := a.windows.Create(req.ID, window.CreateOptions{
		Title:    req.Title,
		Icon:     req.Icon,
		Position: req.Position,
		Size:     req.Size,
		MinSize:  req.MinSize,
	})
	st, _ := a.windows.Get(req.ID)
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, st)
}

// PatchWindow shallow-merges a partial update.
func (a *API) PatchWindow(c *gin.Context) {
	id := c.Param("id")
	var patch window.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.windows.Update(id, patch); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	st, _ := a.windows.Get(id)
	c.JSON(http.StatusOK, st)
}

// MoveWindow applies an edge-snap clamped move.
func (a *API) MoveWindow(c *gin.Context) {
	id := c.Param("id")
	var req moveWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.windows.MoveTo(id, window.Point{X: req.X, Y: req.Y}); err != nil {
		c.JSON(windowErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	st, _ := a.windows.Get(id)
	c.JSON(http.StatusOK, st)
}

// ResizeWindow applies a minimum-clamped resize.
func (a *API) ResizeWindow(c *gin.Context) {
	id := c.Param("id")
	var req resizeWindowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if err := a.windows.ResizeTo(id, window.Size{Width: req.Width, Height: req.Height}); err != nil {
		c.JSON(windowErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	st, _ := a.windows.Get(id)
	c.JSON(http.StatusOK, st)
}

// ServeObject serves a staged export payload until it is revoked.
func (a *API) ServeObject(c *gin.Context) {
	id := c.Param("id")
	path, ok := a.exporter.StagedPath(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "object revoked or unknown"})
		return
	}
	c.FileAttachment(path, c.Param("name"))
}

// windowOp wraps a single-id manager operation into a handler.
func (a *API) windowOp(op func(id string) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := op(id); err != nil {
			c.JSON(windowErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		st, _ := a.windows.Get(id)
		c.JSON(http.StatusOK, st)
	}
}

func windowErrStatus(err error) int {
	if errors.Is(err, window.ErrWindowNotFound) {
		return http.StatusNotFound
	}
	return http.StatusConflict
}
