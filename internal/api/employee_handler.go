package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"cardforge/internal/api/middleware"
	"cardforge/internal/card"
	"cardforge/internal/database"
	"cardforge/internal/export"
	"cardforge/internal/storage"
	"cardforge/internal/tasks"
)

// EmployeeHandler 是数据录入边界：维护员工记录的字段值映射，
// 并负责触发卡片导出。required 校验发生在这里，而不是渲染器里。
type EmployeeHandler struct {
	db          *gorm.DB
	templates   *database.TemplateStore
	asynqClient *asynq.Client
	storage     *storage.Client
}

func NewEmployeeHandler(db *gorm.DB, asynqClient *asynq.Client, storageClient *storage.Client) *EmployeeHandler {
	return &EmployeeHandler{
		db:          db,
		templates:   database.NewTemplateStore(db),
		asynqClient: asynqClient,
		storage:     storageClient,
	}
}

var errInvalidEmployeeID = errors.New("invalid employee id")

type createEmployeeRequest struct {
	TemplateID string            `json:"templateId" binding:"required"`
	FullName   string            `json:"fullName"`
	Data       card.EmployeeData `json:"data"`
}

type employeeResponse struct {
	ID         uint              `json:"id"`
	TemplateID string            `json:"templateId"`
	FullName   string            `json:"fullName,omitempty"`
	Data       card.EmployeeData `json:"data"`
	Status     string            `json:"status,omitempty"`
}

// missingRequiredFields 返回模板中 required 且未填值的字段 ID。
func missingRequiredFields(tpl *card.Template, data card.EmployeeData) []string {
	var missing []string
	for _, f := range tpl.CustomFields {
		if !f.Required {
			continue
		}
		if v, ok := data[f.ID]; !ok || v == "" {
			missing = append(missing, f.ID)
		}
	}
	return missing
}

// CreateEmployee 创建员工记录并绑定模板。
// POST /v1/employees
func (h *EmployeeHandler) CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Data == nil {
		req.Data = card.EmployeeData{}
	}

	ctx := c.Request.Context()
	tpl, err := h.templates.FetchTemplateByID(ctx, req.TemplateID)
	if err != nil {
		switch {
		case errors.Is(err, database.ErrTemplateNotFound):
			BadRequest(c, "template not found")
		default:
			Internal(c, "failed to query template")
		}
		return
	}

	if missing := missingRequiredFields(tpl, req.Data); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "missing required fields",
			"missing_fields": missing,
		})
		return
	}

	encoded, err := json.Marshal(req.Data)
	if err != nil {
		Internal(c, "failed to encode employee data")
		return
	}

	employee := database.Employee{
		TemplateKey: req.TemplateID,
		FullName:    req.FullName,
		Data:        datatypes.JSON(encoded),
		Status:      "draft",
	}
	if err := h.db.WithContext(ctx).Create(&employee).Error; err != nil {
		Internal(c, "failed to create employee")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": employee.ID})
}

// GetEmployee 返回员工记录。
// GET /v1/employees/:id
func (h *EmployeeHandler) GetEmployee(c *gin.Context) {
	employee, err := h.getEmployee(c)
	if err != nil {
		return
	}

	var data card.EmployeeData
	if len(employee.Data) > 0 {
		if err := json.Unmarshal(employee.Data, &data); err != nil {
			Internal(c, "failed to decode employee data")
			return
		}
	}

	c.JSON(http.StatusOK, employeeResponse{
		ID:         employee.ID,
		TemplateID: employee.TemplateKey,
		FullName:   employee.FullName,
		Data:       data,
		Status:     employee.Status,
	})
}

// UpdateEmployeeData 整体替换字段值映射，并执行 required 校验。
// PUT /v1/employees/:id/data
func (h *EmployeeHandler) UpdateEmployeeData(c *gin.Context) {
	employee, err := h.getEmployee(c)
	if err != nil {
		return
	}

	var data card.EmployeeData
	if err := c.ShouldBindJSON(&data); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	tpl, err := h.templates.FetchTemplateByID(ctx, employee.TemplateKey)
	if err != nil {
		Internal(c, "failed to query template")
		return
	}

	if missing := missingRequiredFields(tpl, data); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          "missing required fields",
			"missing_fields": missing,
		})
		return
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		Internal(c, "failed to encode employee data")
		return
	}

	update := map[string]any{"data": datatypes.JSON(encoded)}
	if v, ok := data["fullName"]; ok {
		update["full_name"] = v
	}
	if err := h.db.WithContext(ctx).Model(employee).Updates(update).Error; err != nil {
		Internal(c, "failed to update employee data")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": employee.ID})
}

// ExportCard 将卡片导出任务入队并立即返回 202。
// POST /v1/employees/:id/export
func (h *EmployeeHandler) ExportCard(c *gin.Context) {
	employee, err := h.getEmployee(c)
	if err != nil {
		return
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewCardExportTask(employee.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	info, err := h.asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		Internal(c, "failed to enqueue card export")
		return
	}

	if err := h.db.WithContext(c.Request.Context()).
		Model(employee).
		Update("status", "exporting").Error; err != nil {
		Internal(c, "failed to mark employee exporting")
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":        "card export request accepted",
		"task_id":        info.ID,
		"correlation_id": correlationID,
	})
}

// GetCard 直接回传已导出的卡片 PDF。
// GET /v1/employees/:id/card
func (h *EmployeeHandler) GetCard(c *gin.Context) {
	employee, err := h.getEmployee(c)
	if err != nil {
		return
	}

	if employee.PdfURL == "" {
		Conflict(c, "card pdf not ready")
		return
	}

	obj, err := h.storage.GetObject(c.Request.Context(), employee.PdfURL)
	if err != nil {
		Internal(c, "failed to fetch card pdf")
		return
	}
	defer obj.Close()

	stat, err := obj.Stat()
	if err != nil {
		if storage.IsNoSuchKey(err) {
			NotFound(c, "card pdf missing from storage")
			return
		}
		Internal(c, "failed to stat card pdf")
		return
	}

	var data card.EmployeeData
	if len(employee.Data) > 0 {
		_ = json.Unmarshal(employee.Data, &data)
	}
	filename := export.Filename(data)

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.DataFromReader(http.StatusOK, stat.Size, "application/pdf", obj, nil)
}

// GetCardLink 生成已导出卡片 PDF 的预签名下载链接。
// GET /v1/employees/:id/card-link
func (h *EmployeeHandler) GetCardLink(c *gin.Context) {
	employee, err := h.getEmployee(c)
	if err != nil {
		return
	}

	if employee.PdfURL == "" {
		Conflict(c, "card pdf not ready")
		return
	}

	signedURL, err := h.storage.GeneratePresignedURL(c.Request.Context(), employee.PdfURL, 5*time.Minute)
	if err != nil {
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL})
}

// getEmployee 解析路径参数并加载记录；失败时已写好响应。
func (h *EmployeeHandler) getEmployee(c *gin.Context) (*database.Employee, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
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
		return nil, fmt.Errorf("load employee %d: %w", id, err)
	}
	return &employee, nil
}
