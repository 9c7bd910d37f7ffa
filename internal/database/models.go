package database

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Template 表示一种卡片的可复用设计（背景 + 定位字段），
// Content 存储 internal/card 的规范 JSON 形态。
type Template struct {
	gorm.Model
	Name            string         `gorm:"size:255"`
	TemplateKey     string         `gorm:"uniqueIndex;size:64"` // 对外的模板 ID（card.Template.ID）
	Content         datatypes.JSON `gorm:"type:jsonb"`
	PreviewImageURL string         `gorm:"size:512"`
}

// Employee 表示绑定到某个模板的员工数据记录。
// Data 是字段 ID 到值的映射（card.EmployeeData）。
type Employee struct {
	gorm.Model
	TemplateKey string         `gorm:"index;size:64"`
	FullName    string         `gorm:"size:255"`
	Data        datatypes.JSON `gorm:"type:jsonb"`
	PdfURL      string         `gorm:"size:512"`
	Status      string         `gorm:"size:32"`
}
