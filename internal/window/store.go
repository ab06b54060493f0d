package window

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	fileutil "deskmate/internal/file"
)

// LayoutStore abstracts persistence of the window layout between sessions.
// Default implementation is file-based under the data dir.
type LayoutStore interface {
	SaveLayout(ctx context.Context, states []State) error
	LoadLayout(ctx context.Context) ([]State, error)
}

type fileLayoutStore struct {
	dataDir string
}

func NewFileLayoutStore(dataDir string) LayoutStore { //nolint:ireturn
	if dataDir == "" {
		dataDir = "data"
	}
	return &fileLayoutStore{dataDir: dataDir}
}

func (s *fileLayoutStore) layoutPath() string {
	return filepath.Join(s.dataDir, "windows", "layout.json")
}

func (s *fileLayoutStore) SaveLayout(ctx context.Context, states []State) error { //nolint:revive // context reserved for future use
	return fileutil.WriteJSONAtomic(s.layoutPath(), states) //nolint:wrapcheck
}

func (s *fileLayoutStore) LoadLayout(ctx context.Context) ([]State, error) { //nolint:revive // context reserved for future use
	b, err := os.ReadFile(s.layoutPath()) //nolint:gosec // path is controlled by application
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read layout: %w", err)
	}
	var states []State
	if err := json.Unmarshal(b, &states); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return states, nil
}

// SaveLayout persists the current registry snapshot.
func (m *Manager) SaveLayout(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	return m.store.SaveLayout(ctx, m.List()) //nolint:wrapcheck
}

// LoadLayout restores a previously saved layout. Existing ids are skipped
// so the strict create no-op semantics hold; the z-counter resumes past the
// highest restored z-index.
func (m *Manager) LoadLayout(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	states, err := m.store.LoadLayout(ctx)
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, st := range states {
		if _, exists := m.windows[st.ID]; exists {
			continue
		}
		restored := st
		m.windows[st.ID] = &restored
		m.order = append(m.order, st.ID)
		if st.ZIndex > m.zCounter {
			m.zCounter = st.ZIndex
		}
	}
	return nil
}
