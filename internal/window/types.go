package window

// Snap records which viewport edge a window was last clamped against.
type Snap string

const (
	SnapNone   Snap = "none"
	SnapLeft   Snap = "left"
	SnapRight  Snap = "right"
	SnapTop    Snap = "top"
	SnapBottom Snap = "bottom"
)

// Point is a position in viewport pixels.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size is a window extent in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// State is the full record of one floating window. Position and Size are
// meaningless while Maximized is set; the view derives geometry from the
// flag and the stored fields are left untouched for restore.
type State struct {
	ID        string `json:"id"`
	Visible   bool   `json:"visible"`
	Position  Point  `json:"position"`
	Size      Size   `json:"size"`
	MinSize   Size   `json:"min_size"`
	ZIndex    int    `json:"z_index"`
	Minimized bool   `json:"minimized"`
	Maximized bool   `json:"maximized"`
	Snap      Snap   `json:"snap"`
	Title     string `json:"title"`
	Icon      string `json:"icon,omitempty"`
}

// CreateOptions are caller overrides merged over manager defaults when a
// window is first registered.
type CreateOptions struct {
	Title    string
	Icon     string
	Position *Point
	Size     *Size
	MinSize  *Size
}

// Patch is a shallow partial update; nil fields are left unchanged.
type Patch struct {
	Title    *string `json:"title,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	Position *Point  `json:"position,omitempty"`
	Size     *Size   `json:"size,omitempty"`
	Visible  *bool   `json:"visible,omitempty"`
	Snap     *Snap   `json:"snap,omitempty"`
}

// Options configures a Manager.
type Options struct {
	DataDir       string
	Viewport      Size
	SnapThreshold int
	DefaultSize   Size
	DefaultMin    Size
}
