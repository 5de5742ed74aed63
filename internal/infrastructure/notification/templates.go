package notification

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	"github.com/erp/catalogsync/internal/domain/integration"
)

var funcs = template.FuncMap{
	"duration": func(d time.Duration) string { return d.Round(time.Second).String() },
	"time":     func(t time.Time) string { return t.Format("2006-01-02 15:04:05") },
}

var runErrorsTemplate = template.Must(template.New("run").Funcs(funcs).Parse(
	`The catalog sync run {{.RunID}} finished with {{len .Errors}} failed item(s).
{{range .Errors}}
- {{.RemoteItemID}} {{.Name}}{{if .SKU}} (SKU {{.SKU}}){{end}}: {{.Message}}{{end}}
`))

var cycleCompleteTemplate = template.Must(template.New("cycle").Funcs(funcs).Parse(
	`The scheduled catalog sync cycle {{.CycleID}} is complete.

Started:   {{time .StartedAt}}
Finished:  {{time .FinishedAt}}
Elapsed:   {{duration .Elapsed}}
Catalog:   {{.PreFilterTotal}} item(s) before the tag filter
Queued:    {{.QueuedTotal}}
Synced:    {{.SyncedTotal}}
{{if .Errors}}
Failed items:
{{range .Errors}}
- {{.RemoteItemID}} {{.Name}}{{if .SKU}} (SKU {{.SKU}}){{end}}: {{.Message}}{{end}}
{{else}}
No item failed.
{{end}}`))

func renderRunErrors(report integration.RunReport) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := runErrorsTemplate.Execute(&buf, report); err != nil {
		return "", "", fmt.Errorf("failed to render run report: %w", err)
	}
	return fmt.Sprintf("Catalog sync: %d item(s) failed", len(report.Errors)), buf.String(), nil
}

func renderCycleComplete(report integration.CycleReport) (subject, body string, err error) {
	var buf bytes.Buffer
	if err := cycleCompleteTemplate.Execute(&buf, report); err != nil {
		return "", "", fmt.Errorf("failed to render cycle report: %w", err)
	}
	return fmt.Sprintf("Catalog sync cycle complete: %d synced, %d failed", report.SyncedTotal, len(report.Errors)), buf.String(), nil
}
