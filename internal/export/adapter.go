// Package export turns rendered card surfaces into a paginated,
// print-ready document sized to a physical CR80 badge. PDF byte
// generation itself is delegated to a Sink collaborator.
package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"cardforge/internal/card"
	"cardforge/internal/render"
)

// ErrMissingSurface 表示导出时缺少正面画面，导出直接失败。
var ErrMissingSurface = errors.New("missing front surface")

// Sink accepts a composed print document and produces PDF bytes.
type Sink interface {
	GeneratePDF(ctx context.Context, html string) ([]byte, error)
}

// Artifact 是一次导出的产物。
type Artifact struct {
	Filename string
	PDF      []byte
}

// Adapter composes rendered surfaces into the print document.
type Adapter struct {
	sink Sink
	tmpl *template.Template
}

// NewAdapter returns an adapter writing through the given sink.
func NewAdapter(sink Sink) *Adapter {
	return &Adapter{
		sink: sink,
		tmpl: template.Must(template.New("card-print").Parse(printTemplateString)),
	}
}

type printDoc struct {
	PageWidthMM  float64
	PageHeightMM float64
	Pages        []template.URL
}

// Export 把正面（必填）与背面（可选）画面组合成卡片 PDF。
// 横向布局输出横版页面，纵向布局输出竖版页面。
func (a *Adapter) Export(ctx context.Context, front, back render.Surface, layout card.Layout, data card.EmployeeData) (*Artifact, error) {
	if front == nil {
		return nil, fmt.Errorf("export card: %w", ErrMissingSurface)
	}

	doc := printDoc{
		PageWidthMM:  cardLongEdgeMM,
		PageHeightMM: cardShortEdgeMM,
	}
	if layout == card.LayoutVertical {
		doc.PageWidthMM, doc.PageHeightMM = cardShortEdgeMM, cardLongEdgeMM
	}

	frontURI, err := surfaceDataURI(front)
	if err != nil {
		return nil, fmt.Errorf("encode front surface: %w", err)
	}
	doc.Pages = append(doc.Pages, frontURI)

	if back != nil {
		backURI, err := surfaceDataURI(back)
		if err != nil {
			return nil, fmt.Errorf("encode back surface: %w", err)
		}
		doc.Pages = append(doc.Pages, backURI)
	}

	var html bytes.Buffer
	if err := a.tmpl.Execute(&html, doc); err != nil {
		return nil, fmt.Errorf("compose print document: %w", err)
	}

	pdf, err := a.sink.GeneratePDF(ctx, html.String())
	if err != nil {
		return nil, fmt.Errorf("generate card pdf: %w", err)
	}

	return &Artifact{Filename: Filename(data), PDF: pdf}, nil
}

func surfaceDataURI(s render.Surface) (template.URL, error) {
	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		return "", err
	}
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
	return template.URL(uri), nil
}

// 文件名优先取人名字段，其次取工号字段，最后回落到固定默认值。
var (
	filenameNameKeys = []string{"fullName", "full_name", "name"}
	filenameIDKeys   = []string{"employeeId", "employee_id", "id"}
)

// Filename derives the download filename (without extension collision
// handling): whitespace collapsed to hyphens, lower-cased.
func Filename(data card.EmployeeData) string {
	base := ""
	for _, key := range filenameNameKeys {
		if v := strings.TrimSpace(data[key]); v != "" {
			base = v
			break
		}
	}
	if base == "" {
		for _, key := range filenameIDKeys {
			if v := strings.TrimSpace(data[key]); v != "" {
				base = v
				break
			}
		}
	}
	if base == "" {
		base = "card"
	}
	return strings.ToLower(strings.Join(strings.Fields(base), "-")) + ".pdf"
}
