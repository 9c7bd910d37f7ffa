// Package editor owns the edit-surface interaction state: which field
// is selected, whether a drag is in flight, and how screen coordinates
// map onto the template's image-space coordinates. The template
// aggregate stays the single source of truth; the session never renders
// speculative positions, it mutates the aggregate and asks for a
// re-render afterwards.
package editor

import (
	"image"

	"cardforge/internal/card"
	"cardforge/internal/render"
)

// State is the drag state machine position.
type State int

const (
	// Idle: no field selected, no drag.
	Idle State = iota
	// Selected: a field is selected, pointer not dragging it.
	Selected
	// Dragging: the selected field follows pointer movement.
	Dragging
)

// Session drives pointer interaction for one template side.
type Session struct {
	tpl  *card.Template
	side card.Side
	mode render.Mode

	state       State
	selectedID  string
	pointerDown bool
	dragStart   card.Position

	// Backing resolution of the rendered surface vs the size it is
	// displayed at. Stored positions live in backing-resolution space,
	// so pointer input is scaled by backing/display before hit-testing.
	surfaceW, surfaceH float64
	displayW, displayH float64

	// onChange fires after every committed mutation (selection change,
	// field add/delete, drag step, mode toggle) so the owner can
	// trigger a re-render.
	onChange func()
}

// NewSession creates an edit-mode session for the given side.
func NewSession(tpl *card.Template, side card.Side, onChange func()) *Session {
	return &Session{
		tpl:      tpl,
		side:     side,
		mode:     render.ModeEdit,
		state:    Idle,
		onChange: onChange,
	}
}

// SetSurfaceSize records the backing resolution of the rendered side.
func (s *Session) SetSurfaceSize(w, h float64) {
	s.surfaceW, s.surfaceH = w, h
}

// SetDisplaySize records the on-screen size the surface is shown at.
func (s *Session) SetDisplaySize(w, h float64) {
	s.displayW, s.displayH = w, h
}

// Mode returns the current render mode.
func (s *Session) Mode() render.Mode { return s.mode }

// State returns the drag state machine position.
func (s *Session) State() State { return s.state }

// SelectedFieldID returns the id of the selected field, or "".
func (s *Session) SelectedFieldID() string { return s.selectedID }

// SetMode toggles between edit and preview. Preview disables all
// hit-testing and dragging.
func (s *Session) SetMode(mode render.Mode) {
	if mode == s.mode {
		return
	}
	s.mode = mode
	if mode == render.ModePreview {
		s.state = Idle
		s.selectedID = ""
		s.pointerDown = false
	}
	s.notify()
}

// toSurface 把屏幕坐标换算到背景图自然分辨率坐标。
func (s *Session) toSurface(x, y float64) (float64, float64) {
	if s.displayW > 0 && s.surfaceW > 0 {
		x *= s.surfaceW / s.displayW
	}
	if s.displayH > 0 && s.surfaceH > 0 {
		y *= s.surfaceH / s.displayH
	}
	return x, y
}

// PointerDown hit-tests the active side's fields in reverse list order
// so the most recently added field wins on overlap. Coordinates are in
// screen space.
func (s *Session) PointerDown(screenX, screenY float64) {
	if s.mode == render.ModePreview {
		return
	}
	x, y := s.toSurface(screenX, screenY)
	s.pointerDown = true

	fields := s.tpl.CustomFields
	for i := len(fields) - 1; i >= 0; i-- {
		f := &fields[i]
		if f.Side != s.side || !f.Valid() {
			continue
		}
		if render.FieldBounds(f).Contains(x, y) {
			s.state = Selected
			s.selectedID = f.ID
			s.dragStart = card.Position{X: x, Y: y}
			s.notify()
			return
		}
	}

	s.state = Idle
	s.selectedID = ""
	s.notify()
}

// PointerMove advances a drag with an incremental delta. Each step only
// needs the previous pointer position, so coalesced move events still
// converge to the same final position.
func (s *Session) PointerMove(screenX, screenY float64) {
	if s.mode == render.ModePreview || !s.pointerDown || s.selectedID == "" {
		return
	}
	x, y := s.toSurface(screenX, screenY)
	s.state = Dragging

	dx, dy := x-s.dragStart.X, y-s.dragStart.Y
	if dx == 0 && dy == 0 {
		return
	}
	if err := s.tpl.MoveField(s.selectedID, dx, dy); err != nil {
		return
	}
	s.dragStart = card.Position{X: x, Y: y}
	s.notify()
}

// PointerUp ends an active drag; the field stays selected.
func (s *Session) PointerUp() {
	s.pointerDown = false
	if s.state == Dragging {
		s.state = Selected
	}
}

// PointerLeave is treated like releasing the pointer.
func (s *Session) PointerLeave() {
	s.PointerUp()
}

// Select sets the selection explicitly, bypassing hit-testing.
func (s *Session) Select(id string) {
	if s.tpl.FieldByID(id) == nil {
		return
	}
	s.state = Selected
	s.selectedID = id
	s.notify()
}

// AddField appends a field through the aggregate; the template is left
// unchanged when the id collides.
func (s *Session) AddField(f card.CustomField) error {
	if err := s.tpl.AddField(f); err != nil {
		return err
	}
	s.notify()
	return nil
}

// DeleteSelected removes the selected field and returns to Idle.
func (s *Session) DeleteSelected() error {
	if s.selectedID == "" {
		return card.ErrFieldNotFound
	}
	if err := s.tpl.DeleteField(s.selectedID); err != nil {
		return err
	}
	s.state = Idle
	s.selectedID = ""
	s.pointerDown = false
	s.notify()
	return nil
}

// RenderParams assembles the render inputs reflecting the session's
// committed state.
func (s *Session) RenderParams(background image.Image, data card.EmployeeData) render.Params {
	return render.Params{
		Background:      background,
		Side:            s.side,
		Fields:          s.tpl.CustomFields,
		Mode:            s.mode,
		Data:            data,
		SelectedFieldID: s.selectedID,
	}
}

func (s *Session) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
