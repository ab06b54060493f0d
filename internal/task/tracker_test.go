package task

import (
	"context"
	"errors"
	"testing"
)

func TestLifecycleResetProgressComplete(t *testing.T) {
	tr := NewTracker()

	token, err := tr.Reset(TypePDFToZip)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	st, _ := tr.Get(TypePDFToZip)
	if st.Status != StatusIdle {
		t.Fatalf("expected idle after reset, got %s", st.Status)
	}

	if err := tr.UpdateProgress(TypePDFToZip, token, 2, 10); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	st, _ = tr.Get(TypePDFToZip)
	if st.Status != StatusProcessing || st.Progress != 2 || st.Total != 10 {
		t.Fatalf("unexpected state after progress: %+v", st)
	}

	if err := tr.Complete(TypePDFToZip, token, "data/tasks/pdfToZip/x.zip", "x.zip"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	st, _ = tr.Get(TypePDFToZip)
	if st.Status != StatusCompleted || st.Result == "" || st.FileName != "x.zip" {
		t.Fatalf("unexpected state after complete: %+v", st)
	}
	if st.Progress != st.Total {
		t.Fatalf("progress should reach total on completion: %+v", st)
	}

	if _, err := tr.Reset(TypePDFToZip); err != nil {
		t.Fatalf("second reset: %v", err)
	}
	st, _ = tr.Get(TypePDFToZip)
	if st.Status != StatusIdle || st.Progress != 0 || st.Total != 0 ||
		len(st.Logs) != 0 || st.Result != "" || st.FileName != "" {
		t.Fatalf("reset must clear everything atomically: %+v", st)
	}
}

func TestUnknownTaskTypeRejected(t *testing.T) {
	tr := NewTracker()
	if _, err := tr.Reset(Type("bogus")); !errors.Is(err, ErrUnknownTaskType) {
		t.Fatalf("expected ErrUnknownTaskType, got %v", err)
	}
	if _, ok := tr.Get(Type("bogus")); ok {
		t.Fatalf("unknown type must not resolve")
	}
}

func TestStaleTokenWritesDiscarded(t *testing.T) {
	tr := NewTracker()

	oldToken, _ := tr.Reset(TypeImagesToPDF)
	newToken, _ := tr.Reset(TypeImagesToPDF)

	if err := tr.UpdateProgress(TypeImagesToPDF, oldToken, 5, 10); !errors.Is(err, ErrStaleRun) {
		t.Fatalf("expected ErrStaleRun, got %v", err)
	}
	if err := tr.AddLog(TypeImagesToPDF, oldToken, SeverityInfo, "late"); !errors.Is(err, ErrStaleRun) {
		t.Fatalf("expected ErrStaleRun for stale log, got %v", err)
	}
	if err := tr.Complete(TypeImagesToPDF, oldToken, "r", "f"); !errors.Is(err, ErrStaleRun) {
		t.Fatalf("expected ErrStaleRun for stale complete, got %v", err)
	}

	st, _ := tr.Get(TypeImagesToPDF)
	if st.Status != StatusIdle || st.Progress != 0 || len(st.Logs) != 0 {
		t.Fatalf("stale writes must leave the new run untouched: %+v", st)
	}

	if err := tr.UpdateProgress(TypeImagesToPDF, newToken, 1, 4); err != nil {
		t.Fatalf("current token must pass: %v", err)
	}
}

func TestLogsAppendOnlyAndOrdered(t *testing.T) {
	tr := NewTracker()
	token, _ := tr.Reset(TypeQRGenerate)

	messages := []string{"first", "second", "third"}
	for _, msg := range messages {
		if err := tr.AddLog(TypeQRGenerate, token, SeverityInfo, msg); err != nil {
			t.Fatalf("add log: %v", err)
		}
	}

	st, _ := tr.Get(TypeQRGenerate)
	if len(st.Logs) != len(messages) {
		t.Fatalf("expected %d logs, got %d", len(messages), len(st.Logs))
	}
	for i, msg := range messages {
		if st.Logs[i].Message != msg {
			t.Fatalf("log order broken at %d: %q", i, st.Logs[i].Message)
		}
	}
	for i := 1; i < len(st.Logs); i++ {
		if st.Logs[i].Timestamp.Before(st.Logs[i-1].Timestamp) {
			t.Fatalf("timestamps must be non-decreasing")
		}
	}
	if st.Status != StatusIdle {
		t.Fatalf("AddLog must not mutate status, got %s", st.Status)
	}
}

func TestProgressClampedToPreviousAndTotal(t *testing.T) {
	tr := NewTracker()
	token, _ := tr.Reset(TypeImageCompress)

	_ = tr.UpdateProgress(TypeImageCompress, token, 5, 10)
	_ = tr.UpdateProgress(TypeImageCompress, token, 3, 10) // regression clamped
	st, _ := tr.Get(TypeImageCompress)
	if st.Progress != 5 {
		t.Fatalf("progress must not regress, got %d", st.Progress)
	}

	_ = tr.UpdateProgress(TypeImageCompress, token, 25, 10) // overshoot clamped
	st, _ = tr.Get(TypeImageCompress)
	if st.Progress != 10 {
		t.Fatalf("progress must not exceed total, got %d", st.Progress)
	}
}

func TestFailAppendsErrorLog(t *testing.T) {
	tr := NewTracker()
	token, _ := tr.Reset(TypePDFMerge)

	if err := tr.Fail(TypePDFMerge, token, "boom"); err != nil {
		t.Fatalf("fail: %v", err)
	}
	st, _ := tr.Get(TypePDFMerge)
	if st.Status != StatusError {
		t.Fatalf("expected error status, got %s", st.Status)
	}
	if len(st.Logs) != 1 || st.Logs[0].Severity != SeverityError || st.Logs[0].Message != "boom" {
		t.Fatalf("expected one error log entry, got %+v", st.Logs)
	}
}

func TestTaskTypesAreIndependent(t *testing.T) {
	tr := NewTracker()
	tokenA, _ := tr.Reset(TypePDFToZip)
	tokenB, _ := tr.Reset(TypeImageSplit)

	_ = tr.UpdateProgress(TypePDFToZip, tokenA, 3, 5)
	_ = tr.Fail(TypeImageSplit, tokenB, "nope")

	a, _ := tr.Get(TypePDFToZip)
	b, _ := tr.Get(TypeImageSplit)
	if a.Status != StatusProcessing || b.Status != StatusError {
		t.Fatalf("task types must not interfere: %s / %s", a.Status, b.Status)
	}
}

func TestPersistAndLoadFromDisk(t *testing.T) {
	dataDir := t.TempDir()
	tr := NewTrackerWithOptions(Options{DataDir: dataDir})

	token, _ := tr.Reset(TypePDFToZip)
	_ = tr.UpdateProgress(TypePDFToZip, token, 1, 3)
	_ = tr.Fail(TypePDFToZip, token, "boom")

	token2, _ := tr.Reset(TypePDFMerge)
	_ = tr.Complete(TypePDFMerge, token2, "r.zip", "r.zip")

	tr2 := NewTrackerWithOptions(Options{DataDir: dataDir})
	if err := tr2.LoadFromDisk(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if st, _ := tr2.Get(TypePDFToZip); st.Status != StatusError {
		t.Fatalf("expected error restored, got %s", st.Status)
	}
	if st, _ := tr2.Get(TypePDFMerge); st.Status != StatusCompleted || st.FileName != "r.zip" {
		t.Fatalf("expected completed restored, got %+v", st)
	}
}

func TestInterruptedProcessingMarkedErrorOnLoad(t *testing.T) {
	dataDir := t.TempDir()
	store := NewFileStateStore(dataDir)
	interrupted := &State{Type: TypeImageConvert, Status: StatusProcessing, Progress: 2, Total: 9}
	if err := store.SaveState(context.Background(), interrupted); err != nil {
		t.Fatalf("save: %v", err)
	}

	tr := NewTrackerWithOptions(Options{DataDir: dataDir})
	if err := tr.LoadFromDisk(); err != nil {
		t.Fatalf("load: %v", err)
	}
	st, _ := tr.Get(TypeImageConvert)
	if st.Status != StatusError {
		t.Fatalf("interrupted run must load as error, got %s", st.Status)
	}
	if len(st.Logs) == 0 || st.Logs[len(st.Logs)-1].Severity != SeverityError {
		t.Fatalf("expected an error log entry on the interrupted run")
	}
}
