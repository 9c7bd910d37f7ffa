package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeCardExport      = "card:export"
	TypeTemplatePreview = "template:preview"
)

// CardExportPayload 描述导出一张员工卡所需的最小信息。
type CardExportPayload struct {
	EmployeeID    uint   `json:"employee_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewCardExportTask 构造一个新的员工卡导出任务。
func NewCardExportTask(employeeID uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(CardExportPayload{
		EmployeeID:    employeeID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeCardExport, payload), nil
}

// TemplatePreviewPayload 描述生成模板缩略图所需的信息。
type TemplatePreviewPayload struct {
	TemplateID    string `json:"template_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewTemplatePreviewTask 构造一个新的模板缩略图任务。
func NewTemplatePreviewTask(templateID, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TemplatePreviewPayload{
		TemplateID:    templateID,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeTemplatePreview, payload), nil
}
