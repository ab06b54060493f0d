package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Tracker keeps one State per task type and serializes mutation behind a
// lock. Every run gets a fresh token; a mutation carrying a token from a
// superseded run is discarded, so a still-running prior async chain can no
// longer scribble over a reset state.
type Tracker struct {
	mu      sync.RWMutex
	records map[Type]*record
	store   StateStore
}

type record struct {
	state State
	token string
}

// NewTracker creates a tracker without persistence, suitable for tests.
func NewTracker() *Tracker {
	return NewTrackerWithOptions(Options{})
}

// NewTrackerWithOptions creates a tracker with provided configuration.
func NewTrackerWithOptions(opts Options) *Tracker {
	t := &Tracker{records: make(map[Type]*record, len(Types()))}
	for _, taskType := range Types() {
		t.records[taskType] = &record{
			state: State{Type: taskType, Status: StatusIdle, Logs: []LogEntry{}},
		}
	}
	if opts.DataDir != "" {
		t.store = NewFileStateStore(opts.DataDir)
	}
	return t
}

// Get returns a copy of the state for the task type.
func (t *Tracker) Get(taskType Type) (State, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[taskType]
	if !ok {
		return State{}, false
	}
	return cloneState(rec.state), true
}

// All returns copies of every task state in display order.
func (t *Tracker) All() []State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]State, 0, len(t.records))
	for _, taskType := range Types() {
		out = append(out, cloneState(t.records[taskType].state))
	}
	return out
}

// Reset returns the task to idle as one atomic state replacement, clearing
// progress, total, logs, result and file name, and starts a new run. The
// returned token must accompany every subsequent mutation of this run.
func (t *Tracker) Reset(taskType Type) (string, error) {
	t.mu.Lock()
	rec, ok := t.records[taskType]
	if !ok {
		t.mu.Unlock()
		return "", ErrUnknownTaskType
	}
	token := uuid.NewString()
	rec.state = State{Type: taskType, Status: StatusIdle, Logs: []LogEntry{}}
	rec.token = token
	snapshot := cloneState(rec.state)
	t.mu.Unlock()

	t.persist(&snapshot)
	return token, nil
}

// UpdateProgress overwrites the counters and flips status to processing,
// even if already processing. Progress is clamped to [previous, total]
// once total is known; callers are expected to supply non-decreasing
// values anyway.
func (t *Tracker) UpdateProgress(taskType Type, token string, progress, total int) error {
	return t.withCurrentRun(taskType, token, func(s *State) {
		s.Status = StatusProcessing
		s.Total = total
		if progress < s.Progress {
			progress = s.Progress
		}
		if total > 0 && progress > total {
			progress = total
		}
		s.Progress = progress
	}, false)
}

// AddLog appends one entry without touching status or counters.
func (t *Tracker) AddLog(taskType Type, token string, severity Severity, message string) error {
	return t.withCurrentRun(taskType, token, func(s *State) {
		s.Logs = append(s.Logs, LogEntry{Timestamp: time.Now(), Message: message, Severity: severity})
	}, false)
}

// Complete is terminal for the run: status completed with the artifact
// handle and file name attached.
func (t *Tracker) Complete(taskType Type, token, result, fileName string) error {
	return t.withCurrentRun(taskType, token, func(s *State) {
		s.Status = StatusCompleted
		s.Result = result
		s.FileName = fileName
		if s.Total > 0 {
			s.Progress = s.Total
		}
	}, true)
}

// Fail is terminal for the run: the message is appended as an error log
// entry and status flips to error.
func (t *Tracker) Fail(taskType Type, token, message string) error {
	return t.withCurrentRun(taskType, token, func(s *State) {
		s.Status = StatusError
		s.Logs = append(s.Logs, LogEntry{Timestamp: time.Now(), Message: message, Severity: SeverityError})
	}, true)
}

// withCurrentRun applies the mutation only when the token matches the
// current run; stale writes are dropped with a debug log.
func (t *Tracker) withCurrentRun(taskType Type, token string, fn func(*State), persistAfter bool) error {
	t.mu.Lock()
	rec, ok := t.records[taskType]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownTaskType
	}
	if token == "" || token != rec.token {
		t.mu.Unlock()
		log.Debug().Str("task_type", string(taskType)).Msg("discarding write from superseded run")
		return ErrStaleRun
	}
	fn(&rec.state)
	snapshot := cloneState(rec.state)
	t.mu.Unlock()

	if persistAfter {
		t.persist(&snapshot)
	}
	return nil
}

// persist writes the snapshot best-effort; progress ticks skip it to avoid
// hammering the disk, terminal transitions and resets go through.
func (t *Tracker) persist(s *State) {
	if t.store == nil {
		return
	}
	if err := t.store.SaveState(context.Background(), s); err != nil {
		log.Warn().Str("task_type", string(s.Type)).Err(err).Msg("persist task state failed")
	}
}

// LoadFromDisk restores persisted states. A run left in processing by a
// previous session can never finish, so it is marked as error.
func (t *Tracker) LoadFromDisk() error {
	if t.store == nil {
		return nil
	}
	states, err := t.store.LoadStates(context.Background())
	if err != nil {
		return err
	}
	for _, s := range states {
		if !ValidType(s.Type) {
			continue
		}
		if s.Status == StatusProcessing {
			s.Status = StatusError
			s.Logs = append(s.Logs, LogEntry{
				Timestamp: time.Now(),
				Message:   "run interrupted by restart",
				Severity:  SeverityError,
			})
			t.persist(s)
		}
		t.mu.Lock()
		t.records[s.Type].state = cloneState(*s)
		t.mu.Unlock()
	}
	return nil
}

func cloneState(s State) State {
	out := s
	out.Logs = make([]LogEntry, len(s.Logs))
	copy(out.Logs, s.Logs)
	return out
}
