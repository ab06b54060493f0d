package task

import (
	"context"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"deskmate/internal/window"
)

// ArtifactExporter delivers a finished artifact to the user. Satisfied by
// export.Exporter; tests inject a recording fake.
type ArtifactExporter interface {
	Export(ctx context.Context, data []byte, filename string) string
}

// RunContext is handed to a job so its progress and log callbacks carry the
// run token; reports from a superseded run are dropped by the tracker.
type RunContext struct {
	Token    string
	Progress func(done, total int)
	Log      func(severity Severity, message string)
}

// JobFunc performs one batch operation and returns the artifact path and
// its user-facing file name.
type JobFunc func(ctx context.Context, rc RunContext) (resultPath, fileName string, err error)

// ProgressWindowID is the shared floating window surfaced for running tasks.
const ProgressWindowID = "task-progress"

// Runner drives the control flow around the tracker: reset the task,
// surface the progress window, run the job, complete or fail, then hand
// the artifact to the exporter. Concurrency is capped by a semaphore;
// a started run is never aborted, superseding it only makes its remaining
// writes stale.
type Runner struct {
	tracker   *Tracker
	windows   *window.Manager
	exporter  ArtifactExporter
	semaphore chan struct{}
	workersWG sync.WaitGroup

	mu      sync.Mutex
	baseCtx context.Context
}

// NewRunner creates a runner with the given collaborators.
func NewRunner(tracker *Tracker, windows *window.Manager, exporter ArtifactExporter, maxConcurrent int) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Runner{
		tracker:   tracker,
		windows:   windows,
		exporter:  exporter,
		semaphore: make(chan struct{}, maxConcurrent),
		baseCtx:   context.Background(),
	}
}

// IsBusy reports whether the runner is at max concurrent processing.
func (r *Runner) IsBusy() bool {
	return len(r.semaphore) >= cap(r.semaphore)
}

// SetBaseContext sets the context governing in-flight jobs. Intended to be
// set at process startup and cancelled during shutdown.
func (r *Runner) SetBaseContext(ctx context.Context) {
	r.mu.Lock()
	r.baseCtx = ctx
	r.mu.Unlock()
}

// WaitAll blocks until all in-flight jobs finish or the context is done.
func (r *Runner) WaitAll(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		r.workersWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// Start begins a new run for the task type and returns its token. The slot
// is acquired synchronously so busy state is reflected immediately, then
// the job runs in the background.
func (r *Runner) Start(taskType Type, job JobFunc) (string, error) {
	if !ValidType(taskType) {
		return "", ErrUnknownTaskType
	}

	token, err := r.tracker.Reset(taskType)
	if err != nil {
		return "", err
	}
	r.surfaceProgressWindow(taskType)
	_ = r.tracker.AddLog(taskType, token, SeverityInfo, "run started")

	r.semaphore <- struct{}{}
	r.workersWG.Add(1)
	go func() {
		defer r.workersWG.Done()
		defer func() { <-r.semaphore }()
		r.run(taskType, token, job)
	}()
	return token, nil
}

// surfaceProgressWindow opens or re-shows the shared progress window and
// brings it to the front with the running task in its title.
func (r *Runner) surfaceProgressWindow(taskType Type) {
	if r.windows == nil {
		return
	}
	title := "Task progress · " + string(taskType)
	if !r.windows.Exists(ProgressWindowID) {
		r.windows.Create(ProgressWindowID, window.CreateOptions{Title: title})
	} else {
		_ = r.windows.Update(ProgressWindowID, window.Patch{Title: &title})
		_ = r.windows.Show(ProgressWindowID)
	}
	if _, err := r.windows.Focus(ProgressWindowID); err != nil {
		log.Warn().Str("window_id", ProgressWindowID).Err(err).Msg("focus progress window failed")
	}
}

func (r *Runner) run(taskType Type, token string, job JobFunc) {
	r.mu.Lock()
	ctx := r.baseCtx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	rc := RunContext{
		Token: token,
		Progress: func(done, total int) {
			_ = r.tracker.UpdateProgress(taskType, token, done, total)
		},
		Log: func(severity Severity, message string) {
			_ = r.tracker.AddLog(taskType, token, severity, message)
		},
	}

	resultPath, fileName, err := job(ctx, rc)
	if err != nil {
		log.Warn().Str("task_type", string(taskType)).Err(err).Msg("task run failed")
		_ = r.tracker.Fail(taskType, token, err.Error())
		return
	}

	_ = r.tracker.Complete(taskType, token, resultPath, fileName)
	_ = r.tracker.AddLog(taskType, token, SeveritySuccess, "completed: "+fileName)
	log.Info().Str("task_type", string(taskType)).Str("file", fileName).Msg("task completed")

	r.export(ctx, resultPath, fileName)
}

// export hands the artifact bytes to the exporter. Failures stay here; the
// fallback chain and its logging live inside the adapter, not the task log.
func (r *Runner) export(ctx context.Context, resultPath, fileName string) {
	if r.exporter == nil || resultPath == "" {
		return
	}
	data, err := os.ReadFile(resultPath) //nolint:gosec // artifact written by this run
	if err != nil {
		log.Warn().Str("path", resultPath).Err(err).Msg("reading artifact for export failed")
		return
	}
	r.exporter.Export(ctx, data, fileName)
}
