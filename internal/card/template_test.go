package card

import (
	"encoding/json"
	"errors"
	"testing"
)

func newField(id string, typ FieldType, side Side, x, y float64) CustomField {
	return CustomField{
		ID:       id,
		Name:     id,
		Type:     typ,
		Side:     side,
		Position: &Position{X: x, Y: y},
	}
}

func TestAddField_DuplicateIDLeavesListUnchanged(t *testing.T) {
	tpl := NewTemplate("tpl-1", "Staff Card", LayoutHorizontal, "assets/background/front.png")

	if err := tpl.AddField(newField("name", FieldText, SideFront, 10, 40)); err != nil {
		t.Fatalf("add first field: %v", err)
	}
	// 重复 ID 跨面也算冲突
	err := tpl.AddField(newField("name", FieldDate, SideBack, 50, 60))
	if !errors.Is(err, ErrDuplicateFieldID) {
		t.Fatalf("expected ErrDuplicateFieldID, got %v", err)
	}
	if len(tpl.CustomFields) != 1 {
		t.Fatalf("expected 1 field after failed add, got %d", len(tpl.CustomFields))
	}
	if tpl.CustomFields[0].Type != FieldText {
		t.Fatalf("original field mutated: %+v", tpl.CustomFields[0])
	}
}

func TestAddField_EmptyIDRejected(t *testing.T) {
	tpl := NewTemplate("tpl-1", "Staff Card", LayoutHorizontal, "front.png")
	if err := tpl.AddField(newField("", FieldText, SideFront, 0, 0)); !errors.Is(err, ErrMalformedField) {
		t.Fatalf("expected ErrMalformedField, got %v", err)
	}
}

func TestDeleteField_PreservesOrder(t *testing.T) {
	tpl := NewTemplate("tpl-1", "Staff Card", LayoutHorizontal, "front.png")
	for _, id := range []string{"a", "b", "c"} {
		if err := tpl.AddField(newField(id, FieldText, SideFront, 0, 0)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	if err := tpl.DeleteField("b"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(tpl.CustomFields) != 2 || tpl.CustomFields[0].ID != "a" || tpl.CustomFields[1].ID != "c" {
		t.Fatalf("unexpected fields after delete: %+v", tpl.CustomFields)
	}

	if err := tpl.DeleteField("missing"); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestMoveField_TranslatesPosition(t *testing.T) {
	tpl := NewTemplate("tpl-1", "Staff Card", LayoutHorizontal, "front.png")
	if err := tpl.AddField(newField("name", FieldText, SideFront, 100, 100)); err != nil {
		t.Fatalf("add field: %v", err)
	}

	if err := tpl.MoveField("name", 20, 5); err != nil {
		t.Fatalf("move: %v", err)
	}
	f := tpl.FieldByID("name")
	if f.Position.X != 120 || f.Position.Y != 105 {
		t.Fatalf("expected (120,105), got (%v,%v)", f.Position.X, f.Position.Y)
	}

	// 负增量同样生效
	if err := tpl.MoveField("name", -120, -105); err != nil {
		t.Fatalf("move back: %v", err)
	}
	if f.Position.X != 0 || f.Position.Y != 0 {
		t.Fatalf("expected (0,0), got (%v,%v)", f.Position.X, f.Position.Y)
	}

	if err := tpl.MoveField("missing", 1, 1); !errors.Is(err, ErrFieldNotFound) {
		t.Fatalf("expected ErrFieldNotFound, got %v", err)
	}
}

func TestFieldsOnSide(t *testing.T) {
	tpl := NewTemplate("tpl-1", "Staff Card", LayoutHorizontal, "front.png")
	tpl.BackImage = "back.png"
	for _, f := range []CustomField{
		newField("f1", FieldText, SideFront, 0, 0),
		newField("b1", FieldDate, SideBack, 0, 0),
		newField("f2", FieldImage, SideFront, 0, 0),
	} {
		if err := tpl.AddField(f); err != nil {
			t.Fatalf("add %s: %v", f.ID, err)
		}
	}

	front := tpl.FieldsOnSide(SideFront)
	if len(front) != 2 || front[0].ID != "f1" || front[1].ID != "f2" {
		t.Fatalf("unexpected front fields: %+v", front)
	}
	back := tpl.FieldsOnSide(SideBack)
	if len(back) != 1 || back[0].ID != "b1" {
		t.Fatalf("unexpected back fields: %+v", back)
	}
}

func TestHasSide(t *testing.T) {
	tpl := NewTemplate("tpl-1", "Staff Card", LayoutVertical, "front.png")
	if !tpl.HasSide(SideFront) {
		t.Fatal("front should always be present")
	}
	if tpl.HasSide(SideBack) {
		t.Fatal("back should be absent without BackImage")
	}
	tpl.BackImage = "back.png"
	if !tpl.HasSide(SideBack) {
		t.Fatal("back should be present after setting BackImage")
	}
}

func TestEffectiveStyle_Defaults(t *testing.T) {
	text := newField("t", FieldText, SideFront, 0, 0)
	st := text.EffectiveStyle()
	if st.FontSize != DefaultFontSize || st.Color != DefaultColor || st.FontWeight != DefaultFontWeight {
		t.Fatalf("unexpected text defaults: %+v", st)
	}
	if st.Width != DefaultTextWidth || st.Height != DefaultTextHeight {
		t.Fatalf("unexpected text box defaults: %+v", st)
	}

	img := newField("i", FieldImage, SideFront, 0, 0)
	st = img.EffectiveStyle()
	if st.Width != DefaultImageWidth || st.Height != DefaultImageHeight {
		t.Fatalf("unexpected image box defaults: %+v", st)
	}

	// 显式样式覆盖默认值，未设置的仍合并默认
	styled := newField("s", FieldText, SideFront, 0, 0)
	styled.Style = &FieldStyle{FontSize: 24, Color: "#ff0000"}
	st = styled.EffectiveStyle()
	if st.FontSize != 24 || st.Color != "#ff0000" || st.FontWeight != DefaultFontWeight {
		t.Fatalf("unexpected merged style: %+v", st)
	}
}

func TestValid(t *testing.T) {
	f := newField("x", FieldText, SideFront, 0, 0)
	if !f.Valid() {
		t.Fatal("expected valid field")
	}
	f.Position = nil
	if f.Valid() {
		t.Fatal("field without position must be invalid")
	}
	f.Position = &Position{}
	f.Type = "checkbox"
	if f.Valid() {
		t.Fatal("unknown type must be invalid")
	}
}

func TestTemplateJSONRoundTrip(t *testing.T) {
	tpl := NewTemplate("tpl-7", "访客卡", LayoutVertical, "assets/background/v.png")
	tpl.BackImage = "assets/background/v-back.png"
	f := newField("photo", FieldImage, SideFront, 24, 36)
	f.Style = &FieldStyle{Width: 120, Height: 160}
	if err := tpl.AddField(f); err != nil {
		t.Fatalf("add field: %v", err)
	}

	raw, err := json.Marshal(tpl)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Template
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ID != tpl.ID || decoded.Layout != tpl.Layout || decoded.BackImage != tpl.BackImage {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
	got := decoded.FieldByID("photo")
	if got == nil || got.Position.X != 24 || got.Style.Height != 160 {
		t.Fatalf("field round trip mismatch: %+v", got)
	}
}
