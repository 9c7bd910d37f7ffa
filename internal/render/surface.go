package render

import (
	"image"
	"image/color"
	"io"
)

// TextAlign controls how drawn text is anchored relative to its x coordinate.
type TextAlign string

const (
	AlignLeft   TextAlign = "left"
	AlignCenter TextAlign = "center"
	AlignRight  TextAlign = "right"
)

// TextStyle carries everything a Surface needs to draw one run of text.
// Y is the text baseline in surface pixels.
type TextStyle struct {
	FontFamily string
	Size       float64
	Bold       bool
	Color      color.Color
	Align      TextAlign
}

// Surface is the raster target a renderer paints onto. The same layout
// logic targets an in-memory bitmap here and could target a canvas or a
// different rasterizer elsewhere; the renderer never assumes more than
// these capabilities.
//
// Coordinates are in surface pixels with the origin at the top-left.
type Surface interface {
	// Resize discards existing content and resizes the backing raster.
	Resize(width, height int)
	// Size returns the current backing resolution.
	Size() (width, height int)
	// DrawImage scales img into the destination rectangle.
	DrawImage(img image.Image, x, y, w, h float64)
	// FillRect fills a rectangle with a solid (possibly translucent) color.
	FillRect(x, y, w, h float64, c color.Color)
	// StrokeRect outlines a rectangle with a 1px border.
	StrokeRect(x, y, w, h float64, c color.Color)
	// DrawText draws a single line of text anchored at (x, y-baseline).
	DrawText(text string, x, y float64, st TextStyle)
	// EncodePNG writes the current content as PNG bytes.
	EncodePNG(w io.Writer) error
}
