package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"strings"

	// 背景图与照片常见的两种编码。
	_ "image/jpeg"
	_ "image/png"
)

// ImageResolver 把模板里的图片引用变成已解码的位图。
// 支持内嵌 data URI 与对象存储键两种形式。
type ImageResolver struct {
	Client *Client
}

// Resolve decodes the image behind ref. Object-store lookups go through
// minio; data URIs are decoded in place.
func (r *ImageResolver) Resolve(ctx context.Context, ref string) (image.Image, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("resolve asset: empty reference")
	}

	if strings.HasPrefix(ref, "data:") {
		return decodeDataURI(ref)
	}

	obj, err := r.Client.GetObject(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	img, _, err := image.Decode(obj)
	if err != nil {
		return nil, fmt.Errorf("decode asset %q: %w", ref, err)
	}
	return img, nil
}

func decodeDataURI(uri string) (image.Image, error) {
	idx := strings.Index(uri, ",")
	if idx < 0 || !strings.Contains(uri[:idx], "base64") {
		return nil, fmt.Errorf("decode data uri: unsupported encoding")
	}
	decoder := base64.NewDecoder(base64.StdEncoding, strings.NewReader(uri[idx+1:]))
	data, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("decode data uri: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode data uri image: %w", err)
	}
	return img, nil
}
