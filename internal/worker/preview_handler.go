package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"cardforge/internal/card"
	"cardforge/internal/database"
	"cardforge/internal/render"
	"cardforge/internal/storage"
	"cardforge/internal/tasks"
)

// TemplatePreviewHandler 负责模板缩略图生成任务：
// 在编辑模式下渲染正面并上传 PNG 缩略图。
type TemplatePreviewHandler struct {
	db        *gorm.DB
	templates *database.TemplateStore
	storage   *storage.Client
	logger    *slog.Logger
	assets    *storage.ImageResolver
}

func NewTemplatePreviewHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	logger *slog.Logger,
) *TemplatePreviewHandler {
	return &TemplatePreviewHandler{
		db:        db,
		templates: database.NewTemplateStore(db),
		storage:   storageClient,
		logger:    logger,
		assets:    &storage.ImageResolver{Client: storageClient},
	}
}

func (h *TemplatePreviewHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	log := h.logger

	var payload tasks.TemplatePreviewPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal template preview payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("template_id", payload.TemplateID),
		slog.String("correlation_id", payload.CorrelationID),
	)
	log.Info("Starting template preview generation task...")

	tpl, err := h.templates.FetchTemplateByID(ctx, payload.TemplateID)
	if err != nil {
		if errors.Is(err, database.ErrTemplateNotFound) {
			log.Warn("template not found, skipping task")
			return nil
		}
		log.Error("fetch template failed", slog.Any("error", err))
		return err
	}

	background, err := h.assets.Resolve(ctx, tpl.FrontImage)
	if err != nil {
		// 背景取不到也照常出图，渲染器会画占位画面。
		log.Warn("resolve front background failed", slog.Any("error", err))
		background = nil
	}

	surface := render.NewImageSurface(render.FallbackWidth, render.FallbackHeight)
	render.NewRenderer(log).Render(surface, render.Params{
		Background: background,
		Side:       card.SideFront,
		Fields:     tpl.CustomFields,
		Mode:       render.ModeEdit,
	})

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		log.Error("encode template preview failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("thumbnails/template/%s/preview.png", tpl.ID)
	if _, err := h.storage.UploadFile(ctx, objectName, &buf, int64(buf.Len()), "image/png"); err != nil {
		log.Error("upload template preview failed", slog.Any("error", err))
		return err
	}

	const presignTTL = 7 * 24 * time.Hour
	url, err := h.storage.GeneratePresignedURL(ctx, objectName, presignTTL)
	if err != nil {
		log.Error("generate template preview url failed", slog.Any("error", err))
		return err
	}

	if err := h.templates.SetPreviewURL(ctx, tpl.ID, url); err != nil {
		log.Error("update template preview url failed", slog.Any("error", err))
		return err
	}

	log.Info("Template preview generation completed.")
	return nil
}
