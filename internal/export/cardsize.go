package export

// CardSize 描述物理卡片的页面尺寸（pt，1" = 72pt）。
type CardSize struct {
	Name   string
	Width  float64 // pt
	Height float64 // pt
}

// CR80 是标准员工证/银行卡尺寸 85.6mm x 53.98mm。
var CR80 = CardSize{Name: "CR80", Width: 242.65, Height: 153.01}

const (
	// 毫米单位的 CR80 尺寸，供 CSS @page 使用。
	cardLongEdgeMM  = 85.6
	cardShortEdgeMM = 53.98
)
