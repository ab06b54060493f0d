package task

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	fileutil "deskmate/internal/file"
)

// StateStore abstracts persistence for task snapshots and artifact
// destination resolution. Default implementation is file-based.
type StateStore interface {
	SaveState(ctx context.Context, s *State) error
	LoadStates(ctx context.Context) ([]*State, error)
	ArtifactPath(taskType Type, fileName string) string
}

// fileStateStore implements StateStore on the local filesystem under dataDir.
type fileStateStore struct {
	dataDir string
}

func NewFileStateStore(dataDir string) StateStore { //nolint:ireturn
	if dataDir == "" {
		dataDir = "data"
	}
	return &fileStateStore{dataDir: dataDir}
}

func (s *fileStateStore) taskDir(taskType Type) string {
	return filepath.Join(s.dataDir, "tasks", string(taskType))
}

func (s *fileStateStore) statusPath(taskType Type) string {
	return filepath.Join(s.taskDir(taskType), "status.json")
}

func (s *fileStateStore) ArtifactPath(taskType Type, fileName string) string {
	return filepath.Join(s.taskDir(taskType), fileName)
}

func (s *fileStateStore) SaveState(ctx context.Context, state *State) error { //nolint:revive // context reserved for future use
	if err := fileutil.EnsureDir(s.taskDir(state.Type)); err != nil {
		return err
	}
	return fileutil.WriteJSONAtomic(s.statusPath(state.Type), state) //nolint:wrapcheck
}

func (s *fileStateStore) LoadStates(ctx context.Context) ([]*State, error) { //nolint:revive // context reserved for future use
	states := make([]*State, 0, len(Types()))
	for _, taskType := range Types() {
		b, err := os.ReadFile(s.statusPath(taskType)) //nolint:gosec // path is controlled by application
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("read task state: %w", err)
		}
		var state State
		if err := json.Unmarshal(b, &state); err != nil {
			continue
		}
		states = append(states, &state)
	}
	return states, nil
}
