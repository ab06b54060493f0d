package window

// Gesture sessions mirror one pointer interaction: begin on pointer-down,
// a write on every move for live feedback, release on pointer-up. End is
// idempotent and a release outside the window bounds is fine; a session
// simply stops applying moves once ended.

// DragSession tracks one header drag.
type DragSession struct {
	m            *Manager
	id           string
	startPointer Point
	startPos     Point
	ended        bool
}

// BeginDrag starts a drag gesture from the given pointer coordinates.
// Refused while the window is maximized.
func (m *Manager) BeginDrag(id string, pointer Point) (*DragSession, error) {
	st, ok := m.Get(id)
	if !ok {
		return nil, ErrWindowNotFound
	}
	if st.Maximized {
		return nil, ErrWindowMaximized
	}
	return &DragSession{m: m, id: id, startPointer: pointer, startPos: st.Position}, nil
}

// Move applies initial-position plus pointer-delta with edge-snap clamping
// and writes the result into the registry immediately.
func (d *DragSession) Move(pointer Point) {
	if d.ended {
		return
	}
	candidate := Point{
		X: d.startPos.X + pointer.X - d.startPointer.X,
		Y: d.startPos.Y + pointer.Y - d.startPointer.Y,
	}
	_ = d.m.MoveTo(d.id, candidate)
}

// End releases the gesture. Safe to call more than once.
func (d *DragSession) End() {
	d.ended = true
}

// ResizeSession tracks one corner-handle resize.
type ResizeSession struct {
	m            *Manager
	id           string
	startPointer Point
	startSize    Size
	ended        bool
}

// BeginResize starts a resize gesture from the corner handle.
// Refused while the window is maximized.
func (m *Manager) BeginResize(id string, pointer Point) (*ResizeSession, error) {
	st, ok := m.Get(id)
	if !ok {
		return nil, ErrWindowNotFound
	}
	if st.Maximized {
		return nil, ErrWindowMaximized
	}
	return &ResizeSession{m: m, id: id, startPointer: pointer, startSize: st.Size}, nil
}

// Move applies initial-size plus pointer-delta clamped to the window's
// configured minimum, written on every move.
func (r *ResizeSession) Move(pointer Point) {
	if r.ended {
		return
	}
	candidate := Size{
		Width:  r.startSize.Width + pointer.X - r.startPointer.X,
		Height: r.startSize.Height + pointer.Y - r.startPointer.Y,
	}
	_ = r.m.ResizeTo(r.id, candidate)
}

// End releases the gesture. Safe to call more than once.
func (r *ResizeSession) End() {
	r.ended = true
}
