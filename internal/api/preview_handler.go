package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cardforge/internal/api/middleware"
	"cardforge/internal/card"
	"cardforge/internal/database"
	"cardforge/internal/render"
	"cardforge/internal/storage"
)

// PreviewHandler 在服务端渲染模板的一面并返回 PNG。
// 编辑器用它做设计面底图，预览页用它做数据绑定效果图。
type PreviewHandler struct {
	db        *gorm.DB
	templates *database.TemplateStore
	resolver  *storage.ImageResolver
}

func NewPreviewHandler(db *gorm.DB, storageClient *storage.Client) *PreviewHandler {
	return &PreviewHandler{
		db:        db,
		templates: database.NewTemplateStore(db),
		resolver:  &storage.ImageResolver{Client: storageClient},
	}
}

// RenderPreview 渲染一面并以 image/png 返回。
// GET /v1/templates/:id/preview?side=front&mode=edit&employee_id=&selected=
func (h *PreviewHandler) RenderPreview(c *gin.Context) {
	log := middleware.LoggerFromContext(c)
	ctx := c.Request.Context()

	tpl, err := h.templates.FetchTemplateByID(ctx, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, database.ErrTemplateNotFound):
			NotFound(c, "template not found")
		default:
			Internal(c, "failed to query template")
		}
		return
	}

	side := card.Side(c.DefaultQuery("side", string(card.SideFront)))
	if side != card.SideFront && side != card.SideBack {
		BadRequest(c, "side must be front or back")
		return
	}
	if !tpl.HasSide(side) {
		// 没有背景的一面既不渲染也不导出。
		NotFound(c, "side has no background")
		return
	}

	mode := render.Mode(c.DefaultQuery("mode", string(render.ModeEdit)))
	if mode != render.ModeEdit && mode != render.ModePreview {
		BadRequest(c, "mode must be edit or preview")
		return
	}

	var data card.EmployeeData
	if mode == render.ModePreview {
		data, err = h.loadEmployeeData(c)
		if err != nil {
			return
		}
	}

	// 背景加载失败不是致命错误：渲染器会画占位画面与诊断文字。
	background, err := h.resolver.Resolve(ctx, tpl.BackgroundFor(side))
	if err != nil {
		log.Warn("resolve background failed",
			slog.String("side", string(side)),
			slog.Any("error", err),
		)
		background = nil
	}

	surface := render.NewImageSurface(render.FallbackWidth, render.FallbackHeight)
	render.NewRenderer(log).Render(surface, render.Params{
		Background:      background,
		Side:            side,
		Fields:          tpl.CustomFields,
		Mode:            mode,
		Data:            data,
		SelectedFieldID: c.Query("selected"),
	})

	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		Internal(c, "failed to encode preview")
		return
	}

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// loadEmployeeData 读取可选的 employee_id 查询参数对应的数据；
// 不带参数时返回 nil，预览走占位样本。失败时已写好响应。
func (h *PreviewHandler) loadEmployeeData(c *gin.Context) (card.EmployeeData, error) {
	raw := c.Query("employee_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		BadRequest(c, "invalid employee id")
		return nil, errInvalidEmployeeID
	}

	var employee database.Employee
	if err := h.db.WithContext(c.Request.Context()).First(&employee, uint(id)).Error; err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			NotFound(c, "employee not found")
		default:
			Internal(c, "failed to query employee")
		}
		return nil, err
	}

	var data card.EmployeeData
	if len(employee.Data) > 0 {
		if err := json.Unmarshal(employee.Data, &data); err != nil {
			Internal(c, "failed to decode employee data")
			return nil, err
		}
	}
	return data, nil
}
