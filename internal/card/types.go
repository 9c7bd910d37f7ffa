package card

// Side 标识卡片的正面或背面。
type Side string

const (
	SideFront Side = "front"
	SideBack  Side = "back"
)

// FieldType 决定数据录入控件与渲染规则。
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldDate     FieldType = "date"
	FieldImage    FieldType = "image"
)

// Layout 决定卡片的默认背景纵横比与导出方向。
type Layout string

const (
	LayoutHorizontal Layout = "horizontal"
	LayoutVertical   Layout = "vertical"
)

// Position 是字段锚点，单位为背景图原始像素，原点在左上角。
// 坐标始终存储在背景图的自然分辨率空间里，与屏幕缩放无关。
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FieldStyle 描述单个字段的可选样式；零值字段在渲染时合并默认值。
// Width/Height 仅对 image 类型字段有意义。
type FieldStyle struct {
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	FontWeight string  `json:"fontWeight,omitempty"`
	Color      string  `json:"color,omitempty"`
	TextAlign  string  `json:"textAlign,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// 渲染期的样式默认值。
const (
	DefaultFontSize    = 16.0
	DefaultColor       = "#000000"
	DefaultFontWeight  = "normal"
	DefaultTextWidth   = 150.0
	DefaultTextHeight  = 30.0
	DefaultImageWidth  = 100.0
	DefaultImageHeight = 100.0
)

// CustomField 是模板上一个有位置、有类型、有名字的数据槽。
// ID 同时用作员工数据的键与选中/删除时的身份标识。
type CustomField struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Type     FieldType   `json:"type"`
	Required bool        `json:"required"`
	Side     Side        `json:"side"`
	Position *Position   `json:"position"`
	Style    *FieldStyle `json:"style,omitempty"`
}

// EmployeeData 把字段 ID 映射到绑定值（文本或图片对象键）。
// 渲染路径只读，核心从不修改它。
type EmployeeData map[string]string

// Valid 报告字段是否具备渲染所需的最小结构。
func (f *CustomField) Valid() bool {
	if f.Position == nil {
		return false
	}
	switch f.Type {
	case FieldText, FieldTextarea, FieldDate, FieldImage:
		return true
	}
	return false
}

// EffectiveStyle 返回合并了默认值的样式副本。
func (f *CustomField) EffectiveStyle() FieldStyle {
	var st FieldStyle
	if f.Style != nil {
		st = *f.Style
	}
	if st.FontSize <= 0 {
		st.FontSize = DefaultFontSize
	}
	if st.Color == "" {
		st.Color = DefaultColor
	}
	if st.FontWeight == "" {
		st.FontWeight = DefaultFontWeight
	}
	if st.Width <= 0 {
		if f.Type == FieldImage {
			st.Width = DefaultImageWidth
		} else {
			st.Width = DefaultTextWidth
		}
	}
	if st.Height <= 0 {
		if f.Type == FieldImage {
			st.Height = DefaultImageHeight
		} else {
			st.Height = DefaultTextHeight
		}
	}
	return st
}
