package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cardforge/internal/card"
)

// ErrTemplateNotFound 表示按模板 ID 未找到记录。
var ErrTemplateNotFound = errors.New("template not found")

// TemplateStore 是持久化协作方：核心只经手 card.Template 规范结构，
// JSONB 行与规范结构之间的转换收敛在这一层。
type TemplateStore struct {
	db *gorm.DB
}

// NewTemplateStore returns a store bound to the given database handle.
func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db}
}

// FetchTemplateByID loads and decodes one template aggregate.
func (s *TemplateStore) FetchTemplateByID(ctx context.Context, id string) (*card.Template, error) {
	var row Template
	err := s.db.WithContext(ctx).Where("template_key = ?", id).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("fetch template %q: %w", id, ErrTemplateNotFound)
	case err != nil:
		return nil, fmt.Errorf("fetch template %q: %w", id, err)
	}
	return decodeTemplate(&row)
}

// Save creates or updates by template id, persisting the whole
// aggregate at once. 字段从不被部分持久化。
func (s *TemplateStore) Save(ctx context.Context, tpl *card.Template) error {
	content, err := json.Marshal(tpl)
	if err != nil {
		return fmt.Errorf("encode template %q: %w", tpl.ID, err)
	}

	var row Template
	err = s.db.WithContext(ctx).Where("template_key = ?", tpl.ID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = Template{
			Name:        tpl.Name,
			TemplateKey: tpl.ID,
			Content:     datatypes.JSON(content),
		}
		if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
			return fmt.Errorf("create template %q: %w", tpl.ID, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("query template %q: %w", tpl.ID, err)
	}

	update := map[string]any{
		"name":    tpl.Name,
		"content": datatypes.JSON(content),
	}
	if err := s.db.WithContext(ctx).Model(&row).Updates(update).Error; err != nil {
		return fmt.Errorf("update template %q: %w", tpl.ID, err)
	}
	return nil
}

// List returns decoded templates ordered by most recent update.
func (s *TemplateStore) List(ctx context.Context) ([]*card.Template, error) {
	var rows []Template
	if err := s.db.WithContext(ctx).Order("updated_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	result := make([]*card.Template, 0, len(rows))
	for i := range rows {
		tpl, err := decodeTemplate(&rows[i])
		if err != nil {
			return nil, err
		}
		result = append(result, tpl)
	}
	return result, nil
}

// PreviewURL 返回模板缩略图地址（可能为空）。
func (s *TemplateStore) PreviewURL(ctx context.Context, id string) (string, error) {
	var row Template
	err := s.db.WithContext(ctx).Where("template_key = ?", id).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", fmt.Errorf("fetch template %q: %w", id, ErrTemplateNotFound)
	case err != nil:
		return "", fmt.Errorf("fetch template %q: %w", id, err)
	}
	return row.PreviewImageURL, nil
}

// SetPreviewURL 更新模板缩略图地址。
func (s *TemplateStore) SetPreviewURL(ctx context.Context, id, url string) error {
	result := s.db.WithContext(ctx).
		Model(&Template{}).
		Where("template_key = ?", id).
		Update("preview_image_url", url)
	if result.Error != nil {
		return fmt.Errorf("update template preview %q: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("update template preview %q: %w", id, ErrTemplateNotFound)
	}
	return nil
}

func decodeTemplate(row *Template) (*card.Template, error) {
	var tpl card.Template
	if err := json.Unmarshal(row.Content, &tpl); err != nil {
		return nil, fmt.Errorf("decode template %q content: %w", row.TemplateKey, err)
	}
	if tpl.CustomFields == nil {
		tpl.CustomFields = []card.CustomField{}
	}
	return &tpl, nil
}
