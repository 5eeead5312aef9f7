package dashboard

import (
	"embed"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/dashboard.html
var templatesFS embed.FS

var pageTmpl = template.Must(
	template.New("dashboard.html").Funcs(template.FuncMap{
		"usd":     FormatUSD,
		"percent": FormatPercent,
		"fixed":   formatFixed,
		"input":   formatInput,
		"upper":   strings.ToUpper,
	}).ParseFS(templatesFS, "templates/dashboard.html"),
)

// Render writes the dashboard page for v.
func Render(w io.Writer, v *View) error {
	return pageTmpl.Execute(w, v)
}
