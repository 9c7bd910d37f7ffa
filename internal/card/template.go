package card

import "fmt"

// Template 是聚合根：两面背景加上一组有序的自定义字段。
// CustomFields 的插入顺序没有语义，但必须保持稳定以保证渲染与遍历可复现。
type Template struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Layout       Layout        `json:"layout"`
	FrontImage   string        `json:"frontImage"`
	BackImage    string        `json:"backImage,omitempty"`
	CustomFields []CustomField `json:"customFields"`
}

// NewTemplate 创建只有正面背景、没有字段的模板。
func NewTemplate(id, name string, layout Layout, frontImage string) *Template {
	return &Template{
		ID:           id,
		Name:         name,
		Layout:       layout,
		FrontImage:   frontImage,
		CustomFields: []CustomField{},
	}
}

// AddField 追加一个字段。ID 与任一面现有字段冲突时返回
// ErrDuplicateFieldID，且字段列表保持不变。
func (t *Template) AddField(f CustomField) error {
	if f.ID == "" {
		return fmt.Errorf("add field: %w: empty id", ErrMalformedField)
	}
	for i := range t.CustomFields {
		if t.CustomFields[i].ID == f.ID {
			return fmt.Errorf("add field %q: %w", f.ID, ErrDuplicateFieldID)
		}
	}
	t.CustomFields = append(t.CustomFields, f)
	return nil
}

// DeleteField 按 ID 删除字段，保持其余字段的相对顺序。
func (t *Template) DeleteField(id string) error {
	for i := range t.CustomFields {
		if t.CustomFields[i].ID == id {
			t.CustomFields = append(t.CustomFields[:i], t.CustomFields[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete field %q: %w", id, ErrFieldNotFound)
}

// MoveField 把字段位置平移 (dx, dy)。坐标空间是背景图自然像素。
func (t *Template) MoveField(id string, dx, dy float64) error {
	f := t.FieldByID(id)
	if f == nil {
		return fmt.Errorf("move field %q: %w", id, ErrFieldNotFound)
	}
	if f.Position == nil {
		return fmt.Errorf("move field %q: %w", id, ErrMalformedField)
	}
	f.Position.X += dx
	f.Position.Y += dy
	return nil
}

// FieldByID 返回指向聚合内字段的指针，未找到时返回 nil。
func (t *Template) FieldByID(id string) *CustomField {
	for i := range t.CustomFields {
		if t.CustomFields[i].ID == id {
			return &t.CustomFields[i]
		}
	}
	return nil
}

// FieldsOnSide 按列表顺序返回指定面的字段。
func (t *Template) FieldsOnSide(side Side) []CustomField {
	result := make([]CustomField, 0, len(t.CustomFields))
	for _, f := range t.CustomFields {
		if f.Side == side {
			result = append(result, f)
		}
	}
	return result
}

// BackgroundFor 返回指定面的背景引用；背面未设置时为空串。
func (t *Template) BackgroundFor(side Side) string {
	if side == SideBack {
		return t.BackImage
	}
	return t.FrontImage
}

// HasSide 报告该面是否有背景可渲染。没有背面背景时，
// side == back 的字段是合法状态，但永远不会被渲染或导出。
func (t *Template) HasSide(side Side) bool {
	return t.BackgroundFor(side) != ""
}
