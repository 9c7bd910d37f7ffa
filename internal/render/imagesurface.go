package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// ImageSurface 是基于 *image.RGBA 的 Surface 实现。
// 相同的绘制序列总是产生逐字节相同的 PNG 输出。
type ImageSurface struct {
	rgba *image.RGBA
}

// NewImageSurface 创建指定分辨率的空白画布。
func NewImageSurface(width, height int) *ImageSurface {
	s := &ImageSurface{}
	s.Resize(width, height)
	return s
}

func (s *ImageSurface) Resize(width, height int) {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	s.rgba = image.NewRGBA(image.Rect(0, 0, width, height))
}

func (s *ImageSurface) Size() (int, int) {
	b := s.rgba.Bounds()
	return b.Dx(), b.Dy()
}

// Image 暴露底层位图，供测试与照片合成路径读取像素。
func (s *ImageSurface) Image() *image.RGBA {
	return s.rgba
}

func (s *ImageSurface) DrawImage(img image.Image, x, y, w, h float64) {
	if img == nil || w <= 0 || h <= 0 {
		return
	}
	dst := image.Rect(int(x), int(y), int(x+w), int(y+h))
	xdraw.ApproxBiLinear.Scale(s.rgba, dst, img, img.Bounds(), xdraw.Over, nil)
}

func (s *ImageSurface) FillRect(x, y, w, h float64, c color.Color) {
	rect := image.Rect(int(x), int(y), int(x+w), int(y+h)).Intersect(s.rgba.Bounds())
	src := image.NewUniform(c)
	xdraw.Draw(s.rgba, rect, src, image.Point{}, xdraw.Over)
}

func (s *ImageSurface) StrokeRect(x, y, w, h float64, c color.Color) {
	x2, y2 := x+w, y+h
	s.FillRect(x, y, w, 1, c)
	s.FillRect(x, y2-1, w, 1, c)
	s.FillRect(x, y, 1, h, c)
	s.FillRect(x2-1, y, 1, h, c)
}

func (s *ImageSurface) DrawText(text string, x, y float64, st TextStyle) {
	if text == "" {
		return
	}
	face, err := faceFor(st.Bold, st.Size)
	if err != nil {
		return
	}

	d := &font.Drawer{
		Dst:  s.rgba,
		Src:  image.NewUniform(st.Color),
		Face: face,
	}

	switch st.Align {
	case AlignCenter:
		x -= fixedToFloat(d.MeasureString(text)) / 2
	case AlignRight:
		x -= fixedToFloat(d.MeasureString(text))
	}

	d.Dot = fixed.Point26_6{X: floatToFixed(x), Y: floatToFixed(y)}
	d.DrawString(text)
}

// MeasureText 返回文本在给定样式下的像素宽度。
func (s *ImageSurface) MeasureText(text string, st TextStyle) float64 {
	face, err := faceFor(st.Bold, st.Size)
	if err != nil {
		return 0
	}
	return fixedToFloat(font.MeasureString(face, text))
}

func (s *ImageSurface) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, s.rgba); err != nil {
		return fmt.Errorf("encode surface png: %w", err)
	}
	return nil
}

// 字体只有内嵌的 Go Regular / Go Bold 两种；FontFamily 仅影响外部渲染目标,
// 位图表面按字重选择字体。Face 按 (bold, size) 缓存。
var (
	fontOnce    sync.Once
	fontErr     error
	regularFont *opentype.Font
	boldFont    *opentype.Font

	faceMu    sync.Mutex
	faceCache = map[faceKey]font.Face{}
)

type faceKey struct {
	bold bool
	size float64
}

func loadFonts() {
	regularFont, fontErr = opentype.Parse(goregular.TTF)
	if fontErr != nil {
		return
	}
	boldFont, fontErr = opentype.Parse(gobold.TTF)
}

func faceFor(bold bool, size float64) (font.Face, error) {
	fontOnce.Do(loadFonts)
	if fontErr != nil {
		return nil, fmt.Errorf("load embedded fonts: %w", fontErr)
	}
	if size <= 0 {
		size = 12
	}

	faceMu.Lock()
	defer faceMu.Unlock()

	key := faceKey{bold: bold, size: size}
	if face, ok := faceCache[key]; ok {
		return face, nil
	}

	src := regularFont
	if bold {
		src = boldFont
	}
	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("build font face: %w", err)
	}
	faceCache[key] = face
	return face, nil
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
