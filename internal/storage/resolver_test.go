package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"testing"
)

func pngDataURI(t *testing.T, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestResolve_DataURI(t *testing.T) {
	r := &ImageResolver{}

	img, err := r.Resolve(context.Background(), pngDataURI(t, 32, 16))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("expected 32x16, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestResolve_RejectsEmptyReference(t *testing.T) {
	r := &ImageResolver{}
	if _, err := r.Resolve(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty reference")
	}
}

func TestResolve_RejectsNonBase64DataURI(t *testing.T) {
	r := &ImageResolver{}
	if _, err := r.Resolve(context.Background(), "data:image/png,rawbytes"); err == nil {
		t.Fatal("expected error for non-base64 data uri")
	}
}

func TestResolve_RejectsCorruptImage(t *testing.T) {
	r := &ImageResolver{}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))
	if _, err := r.Resolve(context.Background(), uri); err == nil {
		t.Fatal("expected decode error")
	}
}
