package window

import (
	"errors"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

var (
	ErrWindowNotFound  = errors.New("window not found")
	ErrWindowMaximized = errors.New("window is maximized")
)

const (
	defaultSnapThreshold = 20
	cascadeStep          = 24
	cascadeOrigin        = 40
	cascadeWrap          = 10
)

// Manager is a keyed registry of floating window states. All mutation goes
// through its methods; callers never hold *State.
type Manager struct {
	mu            sync.RWMutex
	windows       map[string]*State
	order         []string
	zCounter      int
	viewport      Size
	snapThreshold int
	defaultSize   Size
	defaultMin    Size
	store         LayoutStore
}

// NewManager creates a manager with defaults suitable for tests.
func NewManager() *Manager {
	return NewManagerWithOptions(Options{
		Viewport:      Size{Width: 1280, Height: 800},
		SnapThreshold: defaultSnapThreshold,
		DefaultSize:   Size{Width: 640, Height: 480},
		DefaultMin:    Size{Width: 240, Height: 160},
	})
}

// NewManagerWithOptions creates a manager with provided configuration.
func NewManagerWithOptions(opts Options) *Manager {
	if opts.SnapThreshold <= 0 {
		opts.SnapThreshold = defaultSnapThreshold
	}
	if opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = Size{Width: 1280, Height: 800}
	}
	if opts.DefaultSize.Width <= 0 || opts.DefaultSize.Height <= 0 {
		opts.DefaultSize = Size{Width: 640, Height: 480}
	}
	if opts.DefaultMin.Width <= 0 || opts.DefaultMin.Height <= 0 {
		opts.DefaultMin = Size{Width: 240, Height: 160}
	}
	m := &Manager{
		windows:       make(map[string]*State),
		viewport:      opts.Viewport,
		snapThreshold: opts.SnapThreshold,
		defaultSize:   opts.DefaultSize,
		defaultMin:    opts.DefaultMin,
	}
	if opts.DataDir != "" {
		m.store = NewFileLayoutStore(opts.DataDir)
	}
	return m
}

// Create lazily registers a window with defaults merged under the caller's
// overrides. It is a strict no-op when the id already exists; callers that
// want ensure-open semantics must check Exists first.
func (m *Manager) Create(id string, opts CreateOptions) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.windows[id]; exists {
		return false
	}

	m.zCounter++
	st := &State{
		ID:      id,
		Visible: true,
		Size:    m.defaultSize,
		MinSize: m.defaultMin,
		ZIndex:  m.zCounter,
		Snap:    SnapNone,
		Title:   id,
	}
	// cascade new windows so they do not stack exactly
	offset := (len(m.order) % cascadeWrap) * cascadeStep
	st.Position = Point{X: cascadeOrigin + offset, Y: cascadeOrigin + offset}

	if opts.Title != "" {
		st.Title = opts.Title
	}
	if opts.Icon != "" {
		st.Icon = opts.Icon
	}
	if opts.Position != nil {
		st.Position = *opts.Position
	}
	if opts.Size != nil {
		st.Size = clampSize(*opts.Size, st.MinSize)
	}
	if opts.MinSize != nil {
		st.MinSize = *opts.MinSize
		st.Size = clampSize(st.Size, st.MinSize)
	}

	m.windows[id] = st
	m.order = append(m.order, id)
	log.Debug().Str("window_id", id).Str("title", st.Title).Msg("window created")
	return true
}

// Exists reports whether the id is registered, visible or not.
func (m *Manager) Exists(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.windows[id]
	return ok
}

// Get returns a copy of the window state.
func (m *Manager) Get(id string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.windows[id]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// List returns copies of all window states in registration order.
func (m *Manager) List() []State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]State, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.windows[id])
	}
	return out
}

// Minimized returns the windows shown in the minimized bar: minimized and
// still visible, in registration order.
func (m *Manager) Minimized() []State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]State, 0)
	for _, id := range m.order {
		if st := m.windows[id]; st.Minimized && st.Visible {
			out = append(out, *st)
		}
	}
	return out
}

// Close hides the window. State is retained for reuse; windows are never
// removed from the registry within a session.
func (m *Manager) Close(id string) error {
	return m.mutate(id, func(st *State) {
		st.Visible = false
	})
}

// Show makes a previously closed window visible again and focuses it.
func (m *Manager) Show(id string) error {
	return m.mutate(id, func(st *State) {
		st.Visible = true
		m.zCounter++
		st.ZIndex = m.zCounter
	})
}

// Update shallow-merges the patch into the window state.
func (m *Manager) Update(id string, patch Patch) error {
	return m.mutate(id, func(st *State) {
		if patch.Title != nil {
			st.Title = *patch.Title
		}
		if patch.Icon != nil {
			st.Icon = *patch.Icon
		}
		if patch.Position != nil {
			st.Position = *patch.Position
		}
		if patch.Size != nil {
			st.Size = clampSize(*patch.Size, st.MinSize)
		}
		if patch.Visible != nil {
			st.Visible = *patch.Visible
		}
		if patch.Snap != nil {
			st.Snap = *patch.Snap
		}
	})
}

// Focus assigns the next z-index. The counter is process-wide, never
// decreases and is never recycled within a session.
func (m *Manager) Focus(id string) (int, error) {
	var z int
	err := m.mutate(id, func(st *State) {
		m.zCounter++
		st.ZIndex = m.zCounter
		z = st.ZIndex
	})
	return z, err
}

// Minimize sets the minimized flag, clearing maximized to keep the flags
// mutually exclusive.
func (m *Manager) Minimize(id string) error {
	return m.mutate(id, func(st *State) {
		st.Minimized = true
		st.Maximized = false
	})
}

// Maximize pins the view to the full viewport. The stored position and size
// are left untouched so restore simply flips the flag back.
func (m *Manager) Maximize(id string) error {
	return m.mutate(id, func(st *State) {
		st.Maximized = true
		st.Minimized = false
	})
}

// Restore clears both flags; the view recomputes geometry from the stored
// position and size.
func (m *Manager) Restore(id string) error {
	return m.mutate(id, func(st *State) {
		st.Minimized = false
		st.Maximized = false
	})
}

// MoveTo places the window at the candidate position after edge-snap
// clamping, recording the snapped side. Refused while maximized.
func (m *Manager) MoveTo(id string, candidate Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.windows[id]
	if !ok {
		return ErrWindowNotFound
	}
	if st.Maximized {
		return ErrWindowMaximized
	}
	st.Position, st.Snap = m.clampPosition(candidate, st.Size)
	return nil
}

// ResizeTo applies the candidate size clamped to the window minimum.
// Refused while maximized.
func (m *Manager) ResizeTo(id string, candidate Size) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.windows[id]
	if !ok {
		return ErrWindowNotFound
	}
	if st.Maximized {
		return ErrWindowMaximized
	}
	st.Size = clampSize(candidate, st.MinSize)
	return nil
}

// SetViewport updates the logical desktop area used for clamping.
func (m *Manager) SetViewport(v Size) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.Width > 0 && v.Height > 0 {
		m.viewport = v
	}
}

// Viewport returns the current clamping area.
func (m *Manager) Viewport() Size {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport
}

func (m *Manager) mutate(id string, fn func(*State)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.windows[id]
	if !ok {
		return ErrWindowNotFound
	}
	fn(st)
	return nil
}

// clampPosition applies the edge-snap rules: a near edge within the
// threshold (or past it) clamps flush to 0, a far edge past
// viewport-threshold clamps flush to the boundary. Horizontal snap wins
// over vertical when both edges clamp. Caller holds the lock.
func (m *Manager) clampPosition(p Point, size Size) (Point, Snap) {
	snap := SnapNone

	if p.X < m.snapThreshold {
		p.X = 0
		snap = SnapLeft
	} else if p.X+size.Width > m.viewport.Width-m.snapThreshold {
		p.X = m.viewport.Width - size.Width
		snap = SnapRight
	}

	if p.Y < m.snapThreshold {
		p.Y = 0
		if snap == SnapNone {
			snap = SnapTop
		}
	} else if p.Y+size.Height > m.viewport.Height-m.snapThreshold {
		p.Y = m.viewport.Height - size.Height
		if snap == SnapNone {
			snap = SnapBottom
		}
	}

	return p, snap
}

func clampSize(s, min Size) Size {
	if s.Width < min.Width {
		s.Width = min.Width
	}
	if s.Height < min.Height {
		s.Height = min.Height
	}
	return s
}

// sortByZ returns ids ordered back-to-front. Used by the UI layer.
func (m *Manager) sortByZ(states []State) []State {
	sort.SliceStable(states, func(i, j int) bool { return states[i].ZIndex < states[j].ZIndex })
	return states
}

// Stacked returns visible, non-minimized windows ordered back-to-front.
func (m *Manager) Stacked() []State {
	all := m.List()
	visible := make([]State, 0, len(all))
	for _, st := range all {
		if st.Visible && !st.Minimized {
			visible = append(visible, st)
		}
	}
	return m.sortByZ(visible)
}
