package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"cardforge/internal/api/middleware"
	"cardforge/internal/card"
	"cardforge/internal/database"
	"cardforge/internal/tasks"
)

// TemplateHandler 负责模板的保存与读取。
// 请求体即 card.Template 的规范 JSON，服务端通过聚合重建校验不变量。
type TemplateHandler struct {
	store       *database.TemplateStore
	asynqClient *asynq.Client
}

func NewTemplateHandler(store *database.TemplateStore, asynqClient *asynq.Client) *TemplateHandler {
	return &TemplateHandler{store: store, asynqClient: asynqClient}
}

// validateTemplate 通过重建聚合来校验字段不变量（ID 唯一、结构完整）。
func validateTemplate(tpl *card.Template) error {
	if strings.TrimSpace(tpl.ID) == "" {
		return errors.New("template id is required")
	}
	if strings.TrimSpace(tpl.Name) == "" {
		return errors.New("template name is required")
	}
	if tpl.Layout != card.LayoutHorizontal && tpl.Layout != card.LayoutVertical {
		return errors.New("layout must be horizontal or vertical")
	}
	if strings.TrimSpace(tpl.FrontImage) == "" {
		return errors.New("front image is required")
	}

	rebuilt := card.NewTemplate(tpl.ID, tpl.Name, tpl.Layout, tpl.FrontImage)
	for _, f := range tpl.CustomFields {
		if !f.Valid() {
			return card.ErrMalformedField
		}
		if err := rebuilt.AddField(f); err != nil {
			return err
		}
	}
	return nil
}

// SaveTemplate 按 ID 创建或整体更新模板（字段从不部分持久化），
// 成功后异步刷新缩略图。
// POST /v1/templates
func (h *TemplateHandler) SaveTemplate(c *gin.Context) {
	var tpl card.Template
	if err := c.ShouldBindJSON(&tpl); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if tpl.CustomFields == nil {
		tpl.CustomFields = []card.CustomField{}
	}

	if err := validateTemplate(&tpl); err != nil {
		if errors.Is(err, card.ErrDuplicateFieldID) {
			Conflict(c, err.Error())
			return
		}
		BadRequest(c, err.Error())
		return
	}

	if err := h.store.Save(c.Request.Context(), &tpl); err != nil {
		Internal(c, "failed to save template")
		return
	}

	h.enqueuePreview(c, tpl.ID)

	c.JSON(http.StatusCreated, gin.H{
		"id":   tpl.ID,
		"name": tpl.Name,
	})
}

// GetTemplate 返回模板的规范 JSON。
// GET /v1/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	id := c.Param("id")

	tpl, err := h.store.FetchTemplateByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrTemplateNotFound):
			NotFound(c, "template not found")
		default:
			Internal(c, "failed to query template")
		}
		return
	}

	c.JSON(http.StatusOK, tpl)
}

// ListTemplates 返回全部模板的概要信息。
// GET /v1/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	templates, err := h.store.List(c.Request.Context())
	if err != nil {
		Internal(c, "failed to list templates")
		return
	}

	items := make([]gin.H, 0, len(templates))
	for _, t := range templates {
		items = append(items, gin.H{
			"id":     t.ID,
			"name":   t.Name,
			"layout": t.Layout,
			"fields": len(t.CustomFields),
		})
	}
	c.JSON(http.StatusOK, items)
}

func (h *TemplateHandler) enqueuePreview(c *gin.Context, templateID string) {
	if h.asynqClient == nil {
		return
	}
	task, err := tasks.NewTemplatePreviewTask(templateID, middleware.GetCorrelationID(c))
	if err != nil {
		middleware.LoggerFromContext(c).Warn("create preview task failed", slog.Any("error", err))
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(3)); err != nil {
		middleware.LoggerFromContext(c).Warn("enqueue preview task failed", slog.Any("error", err))
	}
}
