package editor

import (
	"errors"
	"testing"

	"cardforge/internal/card"
	"cardforge/internal/render"
)

func newSessionFixture(t *testing.T) (*card.Template, *Session, *int) {
	t.Helper()
	tpl := card.NewTemplate("tpl-1", "Staff Card", card.LayoutHorizontal, "front.png")
	fields := []card.CustomField{
		{ID: "name", Name: "Name", Type: card.FieldText, Side: card.SideFront, Position: &card.Position{X: 100, Y: 100}},
		{ID: "photo", Name: "Photo", Type: card.FieldImage, Side: card.SideFront, Position: &card.Position{X: 300, Y: 50}},
		{ID: "back-note", Name: "Note", Type: card.FieldText, Side: card.SideBack, Position: &card.Position{X: 100, Y: 100}},
	}
	for _, f := range fields {
		if err := tpl.AddField(f); err != nil {
			t.Fatalf("add %s: %v", f.ID, err)
		}
	}

	renders := 0
	s := NewSession(tpl, card.SideFront, func() { renders++ })
	return tpl, s, &renders
}

func TestPointerDown_SelectsHitField(t *testing.T) {
	_, s, renders := newSessionFixture(t)

	// name 的选择框为 (100, 80, 150, 30)
	s.PointerDown(110, 95)
	if s.State() != Selected || s.SelectedFieldID() != "name" {
		t.Fatalf("expected name selected, got state=%v id=%q", s.State(), s.SelectedFieldID())
	}
	if *renders != 1 {
		t.Fatalf("expected 1 re-render, got %d", *renders)
	}

	// 空白处点击回到 Idle
	s.PointerUp()
	s.PointerDown(5, 5)
	if s.State() != Idle || s.SelectedFieldID() != "" {
		t.Fatalf("expected idle after empty click, got state=%v id=%q", s.State(), s.SelectedFieldID())
	}
}

func TestPointerDown_TopmostFieldWinsOnOverlap(t *testing.T) {
	tpl, s, _ := newSessionFixture(t)

	// 与 name 的选择框重叠、但列表序靠后的字段应当胜出
	overlap := card.CustomField{
		ID: "badge", Name: "Badge", Type: card.FieldText, Side: card.SideFront,
		Position: &card.Position{X: 100, Y: 100},
	}
	if err := tpl.AddField(overlap); err != nil {
		t.Fatalf("add overlap: %v", err)
	}

	s.PointerDown(110, 95)
	if s.SelectedFieldID() != "badge" {
		t.Fatalf("expected topmost field badge, got %q", s.SelectedFieldID())
	}
}

func TestPointerDown_IgnoresOtherSide(t *testing.T) {
	_, s, _ := newSessionFixture(t)

	// back-note 与 name 同坐标，但在背面，正面会话不应命中它
	s.PointerDown(110, 95)
	if s.SelectedFieldID() != "name" {
		t.Fatalf("expected front field, got %q", s.SelectedFieldID())
	}
}

func TestDrag_AccumulatesIncrementalDeltas(t *testing.T) {
	tpl, s, _ := newSessionFixture(t)

	s.PointerDown(110, 95)
	s.PointerMove(120, 97)
	if s.State() != Dragging {
		t.Fatalf("expected Dragging, got %v", s.State())
	}
	s.PointerMove(130, 100)
	s.PointerUp()

	// 累计位移 (+20, +5)
	f := tpl.FieldByID("name")
	if f.Position.X != 120 || f.Position.Y != 105 {
		t.Fatalf("expected (120,105), got (%v,%v)", f.Position.X, f.Position.Y)
	}
	if s.State() != Selected {
		t.Fatalf("expected Selected after release, got %v", s.State())
	}
}

func TestDrag_PointerLeaveEndsDrag(t *testing.T) {
	tpl, s, _ := newSessionFixture(t)

	s.PointerDown(110, 95)
	s.PointerMove(150, 95)
	s.PointerLeave()
	if s.State() != Selected {
		t.Fatalf("expected Selected after leave, got %v", s.State())
	}

	// 离开后再移动指针不应继续拖动
	s.PointerMove(200, 95)
	f := tpl.FieldByID("name")
	if f.Position.X != 140 {
		t.Fatalf("expected drag frozen at 140, got %v", f.Position.X)
	}
}

func TestDisplayScaling_MapsScreenToSurfaceSpace(t *testing.T) {
	tpl, s, _ := newSessionFixture(t)
	s.SetSurfaceSize(1000, 600)
	s.SetDisplaySize(500, 300)

	// 屏幕 (55, 47.5) -> 表面 (110, 95)，命中 name
	s.PointerDown(55, 47.5)
	if s.SelectedFieldID() != "name" {
		t.Fatalf("expected name via scaled hit test, got %q", s.SelectedFieldID())
	}

	// 屏幕位移 (10, 5) -> 表面位移 (20, 10)
	s.PointerMove(65, 52.5)
	f := tpl.FieldByID("name")
	if f.Position.X != 120 || f.Position.Y != 110 {
		t.Fatalf("expected (120,110), got (%v,%v)", f.Position.X, f.Position.Y)
	}
}

func TestPreviewMode_DisablesInteraction(t *testing.T) {
	tpl, s, _ := newSessionFixture(t)

	s.PointerDown(110, 95)
	s.SetMode(render.ModePreview)
	if s.State() != Idle || s.SelectedFieldID() != "" {
		t.Fatalf("preview must clear selection, got state=%v id=%q", s.State(), s.SelectedFieldID())
	}

	s.PointerDown(110, 95)
	s.PointerMove(200, 95)
	if s.State() != Idle {
		t.Fatalf("preview must ignore pointer, got %v", s.State())
	}
	if f := tpl.FieldByID("name"); f.Position.X != 100 {
		t.Fatalf("preview must not move fields, got %v", f.Position.X)
	}

	// 切回编辑模式后交互恢复
	s.SetMode(render.ModeEdit)
	s.PointerDown(110, 95)
	if s.SelectedFieldID() != "name" {
		t.Fatalf("expected interaction restored, got %q", s.SelectedFieldID())
	}
}

func TestAddAndDeleteSelected(t *testing.T) {
	tpl, s, _ := newSessionFixture(t)

	if err := s.DeleteSelected(); !errors.Is(err, card.ErrFieldNotFound) {
		t.Fatalf("delete without selection: %v", err)
	}

	dup := card.CustomField{ID: "name", Type: card.FieldText, Side: card.SideFront, Position: &card.Position{}}
	if err := s.AddField(dup); !errors.Is(err, card.ErrDuplicateFieldID) {
		t.Fatalf("expected duplicate rejection, got %v", err)
	}

	s.Select("photo")
	if err := s.DeleteSelected(); err != nil {
		t.Fatalf("delete selected: %v", err)
	}
	if s.State() != Idle || s.SelectedFieldID() != "" {
		t.Fatalf("expected idle after delete, got state=%v id=%q", s.State(), s.SelectedFieldID())
	}
	if tpl.FieldByID("photo") != nil {
		t.Fatal("photo should be removed from template")
	}
}

func TestRenderParams_ReflectsSessionState(t *testing.T) {
	_, s, _ := newSessionFixture(t)
	s.Select("name")

	p := s.RenderParams(nil, card.EmployeeData{"name": "Jordan Li"})
	if p.Side != card.SideFront || p.Mode != render.ModeEdit {
		t.Fatalf("unexpected params: %+v", p)
	}
	if p.SelectedFieldID != "name" {
		t.Fatalf("expected selected id in params, got %q", p.SelectedFieldID)
	}
	if len(p.Fields) != 3 {
		t.Fatalf("expected all template fields, got %d", len(p.Fields))
	}
}
