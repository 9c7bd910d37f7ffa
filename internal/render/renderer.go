package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"cardforge/internal/card"
)

// Mode selects between the design surface and the data-bound preview.
type Mode string

const (
	// ModeEdit paints field labels and selection chrome instead of data.
	ModeEdit Mode = "edit"
	// ModePreview paints bound or placeholder values with no chrome.
	ModePreview Mode = "preview"
)

// Canned preview samples used when a field has no bound value.
const (
	SampleDate     = "01/01/2025"
	SampleTextarea = "Sample text area content..."
	PhotoLabel     = "Photo"
)

// Fallback resolution when a background image is unavailable.
const (
	FallbackWidth  = 500
	FallbackHeight = 300
)

var (
	boxFill        = color.RGBA{R: 128, G: 128, B: 128, A: 80}
	strokeSelected = color.RGBA{R: 59, G: 130, B: 246, A: 255}
	strokeIdle     = color.RGBA{R: 156, G: 163, B: 175, A: 255}
	labelColor     = color.RGBA{R: 31, G: 41, B: 55, A: 255}
	fallbackFill   = color.RGBA{R: 229, G: 231, B: 235, A: 255}
)

const editLabelSize = 12.0

// Rect is an axis-aligned box in surface pixels.
type Rect struct {
	X, Y, W, H float64
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

// FieldBounds returns the box a field occupies on its surface: the
// styled image box for image fields, or the fixed selection box for
// text-like fields, anchored so its bottom-left corner sits 10px below
// the position baseline.
func FieldBounds(f *card.CustomField) Rect {
	st := f.EffectiveStyle()
	if f.Type == card.FieldImage {
		return Rect{X: f.Position.X, Y: f.Position.Y, W: st.Width, H: st.Height}
	}
	return Rect{
		X: f.Position.X,
		Y: f.Position.Y - 20,
		W: card.DefaultTextWidth,
		H: card.DefaultTextHeight,
	}
}

// Params bundles one render call's inputs. Background may be nil when
// the side's image has not loaded or failed to load; the renderer then
// paints a diagnostic placeholder instead of failing.
type Params struct {
	Background      image.Image
	Side            card.Side
	Fields          []card.CustomField
	Mode            Mode
	Data            card.EmployeeData
	SelectedFieldID string
	// Photos maps image-field ids to decoded photos. Only consulted in
	// preview mode when CompositePhotos is enabled on the renderer.
	Photos map[string]image.Image
}

// Renderer paints one side of a template onto a Surface. It only ever
// reads the template; rendering the same Params twice produces
// identical output.
type Renderer struct {
	Logger *slog.Logger
	// CompositePhotos draws bound photos into image boxes during
	// preview instead of the gray placeholder. Off for the interactive
	// preview, on for export.
	CompositePhotos bool
}

// NewRenderer returns a renderer logging through the given logger.
func NewRenderer(logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{Logger: logger}
}

// Render executes one synchronous render pass for a single side.
// Fields whose Side differs are ignored; malformed fields are skipped
// with a warning and never abort the pass.
func (r *Renderer) Render(s Surface, p Params) {
	if p.Background != nil {
		b := p.Background.Bounds()
		s.Resize(b.Dx(), b.Dy())
		s.DrawImage(p.Background, 0, 0, float64(b.Dx()), float64(b.Dy()))
	} else {
		r.paintFallback(s, p.Side)
	}

	for i := range p.Fields {
		f := &p.Fields[i]
		if f.Side != p.Side {
			continue
		}
		if !f.Valid() {
			r.Logger.Warn("skipping malformed field",
				slog.String("field_id", f.ID),
				slog.String("field_type", string(f.Type)),
			)
			continue
		}
		if f.Type == card.FieldImage {
			r.paintImageField(s, p, f)
		} else {
			r.paintTextField(s, p, f)
		}
	}
}

// paintFallback 在背景缺失时绘制中性占位图与诊断文字。
func (r *Renderer) paintFallback(s Surface, side card.Side) {
	s.Resize(FallbackWidth, FallbackHeight)
	s.FillRect(0, 0, FallbackWidth, FallbackHeight, fallbackFill)
	s.StrokeRect(0, 0, FallbackWidth, FallbackHeight, strokeIdle)
	s.DrawText(
		fmt.Sprintf("%s background unavailable", side),
		FallbackWidth/2, FallbackHeight/2,
		TextStyle{Size: 14, Color: labelColor, Align: AlignCenter},
	)
}

func (r *Renderer) paintImageField(s Surface, p Params, f *card.CustomField) {
	box := FieldBounds(f)

	if p.Mode == ModeEdit {
		s.FillRect(box.X, box.Y, box.W, box.H, boxFill)
		s.StrokeRect(box.X, box.Y, box.W, box.H, r.strokeFor(f.ID, p.SelectedFieldID))
		s.DrawText(f.Name, box.X+box.W/2, box.Y+box.H/2,
			TextStyle{Size: editLabelSize, Color: labelColor, Align: AlignCenter})
		return
	}

	if r.CompositePhotos {
		if photo, ok := p.Photos[f.ID]; ok && photo != nil {
			s.DrawImage(photo, box.X, box.Y, box.W, box.H)
			return
		}
	}
	s.FillRect(box.X, box.Y, box.W, box.H, boxFill)
	s.DrawText(PhotoLabel, box.X+box.W/2, box.Y+box.H/2,
		TextStyle{Size: editLabelSize, Color: labelColor, Align: AlignCenter})
}

func (r *Renderer) paintTextField(s Surface, p Params, f *card.CustomField) {
	if p.Mode == ModeEdit {
		// 编辑态画的是选择框和名字标签，字段自身样式只作用于预览文本。
		box := FieldBounds(f)
		s.FillRect(box.X, box.Y, box.W, box.H, boxFill)
		s.StrokeRect(box.X, box.Y, box.W, box.H, r.strokeFor(f.ID, p.SelectedFieldID))
		s.DrawText(f.Name, box.X+4, box.Y+box.H/2+editLabelSize/2,
			TextStyle{Size: editLabelSize, Color: labelColor, Align: AlignLeft})
		return
	}

	value := resolvePreviewValue(f, p.Data)
	if value == "" {
		return
	}
	st := f.EffectiveStyle()
	s.DrawText(value, f.Position.X, f.Position.Y, TextStyle{
		FontFamily: st.FontFamily,
		Size:       st.FontSize,
		Bold:       st.FontWeight == "bold",
		Color:      parseHexColor(st.Color),
		Align:      TextAlign(st.TextAlign),
	})
}

func (r *Renderer) strokeFor(fieldID, selectedID string) color.Color {
	if fieldID == selectedID {
		return strokeSelected
	}
	return strokeIdle
}

// resolvePreviewValue picks the text painted for a text-like field in
// preview mode: the bound value when present, otherwise the canned
// sample for date/textarea fields.
func resolvePreviewValue(f *card.CustomField, data card.EmployeeData) string {
	value, ok := data[f.ID]
	if !ok || value == "" {
		switch f.Type {
		case card.FieldDate:
			return SampleDate
		case card.FieldTextarea:
			return SampleTextarea
		}
		return ""
	}
	if f.Type == card.FieldDate {
		return formatDateValue(value)
	}
	return value
}

// formatDateValue 把机器格式的日期转成本地化显示；无法解析时原样返回。
func formatDateValue(value string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("01/02/2006")
		}
	}
	return value
}

// parseHexColor 解析 #RGB / #RRGGBB，失败时回落到黑色。
func parseHexColor(s string) color.Color {
	var r, g, b uint8
	switch len(s) {
	case 7:
		if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
			return color.Black
		}
	case 4:
		if _, err := fmt.Sscanf(s, "#%1x%1x%1x", &r, &g, &b); err != nil {
			return color.Black
		}
		r *= 17
		g *= 17
		b *= 17
	default:
		return color.Black
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
