package export

// printTemplateString 是卡片打印文档的 HTML 模板。
// 每一面占一页，渲染好的位图铺满整页；页面尺寸由布局方向决定。
const printTemplateString = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        @page {
            size: {{.PageWidthMM}}mm {{.PageHeightMM}}mm;
            margin: 0;
        }
        body {
            margin: 0;
            padding: 0;
        }
        .card-page {
            width: {{.PageWidthMM}}mm;
            height: {{.PageHeightMM}}mm;
            page-break-after: always;
        }
        .card-page:last-child {
            page-break-after: auto;
        }
        .card-page img {
            width: 100%;
            height: 100%;
            display: block;
            object-fit: fill;
        }
    </style>
</head>
<body>
    {{range .Pages}}
    <div class="card-page"><img src="{{.}}" /></div>
    {{end}}
</body>
</html>
`
