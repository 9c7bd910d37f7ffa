package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"cardforge/internal/card"
	"cardforge/internal/database"
	"cardforge/internal/errcode"
	"cardforge/internal/export"
	"cardforge/internal/render"
	"cardforge/internal/storage"
	"cardforge/internal/tasks"
)

// ExportTaskHandler 负责消费员工卡导出任务：
// 渲染两面位图 -> 组合打印文档 -> 生成 PDF -> 上传并通知。
type ExportTaskHandler struct {
	db          *gorm.DB
	templates   *database.TemplateStore
	storage     *storage.Client
	redisClient *redis.Client
	logger      *slog.Logger
	adapter     *export.Adapter
	assets      *storage.ImageResolver
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	storageClient *storage.Client,
	redisClient *redis.Client,
	logger *slog.Logger,
	sink export.Sink,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:          db,
		templates:   database.NewTemplateStore(db),
		storage:     storageClient,
		redisClient: redisClient,
		logger:      logger,
		adapter:     export.NewAdapter(sink),
		assets:      &storage.ImageResolver{Client: storageClient},
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.CardExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return err
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Int("employee_id", int(payload.EmployeeID)),
	)
	log.Info("Starting card export task...")

	var employee database.Employee
	if err := h.db.WithContext(ctx).First(&employee, payload.EmployeeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("employee not found, skipping task")
			return nil
		}
		log.Error("query employee failed", slog.Any("error", err))
		return err
	}

	defer func() {
		if retErr == nil {
			return
		}
		if !isFinalAsynqAttempt(ctx) {
			return
		}

		notify := CardExportNotifyMessage{
			Status:        "error",
			EmployeeID:    employee.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.SystemError,
			ErrorMessage:  strings.TrimSpace(retErr.Error()),
		}
		if err := h.publishExportNotify(ctx, employee.ID, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	tpl, err := h.templates.FetchTemplateByID(ctx, employee.TemplateKey)
	if err != nil {
		log.Error("fetch template failed", slog.Any("error", err))
		return err
	}

	var data card.EmployeeData
	if len(employee.Data) > 0 {
		if err := json.Unmarshal(employee.Data, &data); err != nil {
			log.Error("decode employee data failed", slog.Any("error", err))
			return err
		}
	}

	artifact, missingKeys, err := h.renderAndExport(ctx, tpl, data, log)
	if err != nil {
		log.Error("render card failed", slog.Any("error", err))
		return err
	}

	objectName := fmt.Sprintf("generated-cards/%d/%s.pdf", employee.ID, uuid.NewString())
	pdfReader := bytes.NewReader(artifact.PDF)
	if _, err := h.storage.UploadFile(ctx, objectName, pdfReader, int64(len(artifact.PDF)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	// 重复导出时回收上一次的 PDF 对象
	if employee.PdfURL != "" && employee.PdfURL != objectName {
		if err := h.storage.DeleteObject(ctx, employee.PdfURL); err != nil {
			log.Warn("delete stale pdf failed", slog.String("object", employee.PdfURL), slog.Any("error", err))
		}
	}

	update := map[string]any{
		"pdf_url": objectName,
		"status":  "completed",
	}
	if err := h.db.WithContext(ctx).Model(&employee).Updates(update).Error; err != nil {
		log.Error("update employee failed", slog.Any("error", err))
		return err
	}

	notify := CardExportNotifyMessage{
		Status:        "completed",
		EmployeeID:    employee.ID,
		CorrelationID: payload.CorrelationID,
		Filename:      artifact.Filename,
		ErrorCode:     errcode.OK,
	}
	if len(missingKeys) > 0 {
		notify.ErrorCode = errcode.ResourceMissing
		notify.ErrorMessage = "部分图片资源缺失/无效，已自动跳过并继续导出"
		notify.MissingKeys = missingKeys
		log.Warn("card exported with missing assets",
			slog.Int("missing_count", len(missingKeys)),
			slog.Any("missing_keys", missingKeys),
		)
	}
	if err := h.publishExportNotify(ctx, employee.ID, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
		return err
	}

	log.Info("Card export task completed successfully.")
	return nil
}

// renderAndExport 渲染正反两面并交给导出适配器。
// 背景或照片缺失不会中断导出：缺失的引用收集到 missingKeys，
// 渲染器用占位图兜底。
func (h *ExportTaskHandler) renderAndExport(
	ctx context.Context,
	tpl *card.Template,
	data card.EmployeeData,
	log *slog.Logger,
) (*export.Artifact, []string, error) {
	renderer := render.NewRenderer(log)
	renderer.CompositePhotos = true

	var missingKeys []string

	photos := map[string]image.Image{}
	for _, f := range tpl.CustomFields {
		if f.Type != card.FieldImage {
			continue
		}
		ref, ok := data[f.ID]
		if !ok || strings.TrimSpace(ref) == "" {
			continue
		}
		img, err := h.assets.Resolve(ctx, ref)
		if err != nil {
			if !storage.IsNoSuchKey(err) {
				log.Warn("resolve photo failed", slog.String("field_id", f.ID), slog.Any("error", err))
			}
			missingKeys = append(missingKeys, ref)
			continue
		}
		photos[f.ID] = img
	}

	renderSide := func(side card.Side) render.Surface {
		background, err := h.assets.Resolve(ctx, tpl.BackgroundFor(side))
		if err != nil {
			log.Warn("resolve background failed",
				slog.String("side", string(side)),
				slog.Any("error", err),
			)
			missingKeys = append(missingKeys, tpl.BackgroundFor(side))
			background = nil
		}
		surface := render.NewImageSurface(render.FallbackWidth, render.FallbackHeight)
		renderer.Render(surface, render.Params{
			Background: background,
			Side:       side,
			Fields:     tpl.CustomFields,
			Mode:       render.ModePreview,
			Data:       data,
			Photos:     photos,
		})
		return surface
	}

	front := renderSide(card.SideFront)
	var back render.Surface
	if tpl.HasSide(card.SideBack) {
		back = renderSide(card.SideBack)
	}

	artifact, err := h.adapter.Export(ctx, front, back, tpl.Layout, data)
	if err != nil {
		return nil, missingKeys, err
	}
	return artifact, missingKeys, nil
}

func (h *ExportTaskHandler) publishExportNotify(ctx context.Context, employeeID uint, notify CardExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := fmt.Sprintf("employee_notify:%d", employeeID)
	if err := h.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

func isFinalAsynqAttempt(ctx context.Context) bool {
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return false
	}
	return retryCount >= maxRetry
}
