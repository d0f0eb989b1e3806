// internal/api/page.go
package api

import (
	"bytes"
	"html/template"

	"signal-explorer/internal/explorer/chart"
)

type chartView struct {
	Title string
	SVG   template.HTML
}

type pageView struct {
	Filter string
	Charts []chartView
}

var chartsPage = template.Must(template.New("charts").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Signal Explorer</title>
</head>
<body>
<h1>Filtered Data by {{.Filter}}</h1>
{{- range .Charts}}
<section>
<h2>Title: {{.Title}}</h2>
{{.SVG}}
</section>
{{- else}}
<p>` + chart.NoDataMessage + `</p>
{{- end}}
</body>
</html>
`))

// inlineSVG drops any XML prolog so the document can sit inside HTML.
func inlineSVG(doc []byte) template.HTML {
	if i := bytes.Index(doc, []byte("<svg")); i > 0 {
		doc = doc[i:]
	}
	return template.HTML(doc)
}
