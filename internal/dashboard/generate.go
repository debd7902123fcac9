// Package dashboard renders Grafana dashboards for the GreptimeDB tables.
package dashboard

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"robofleet-sim/internal/telemetry"
)

//go:embed templates/*.tmpl
var templates embed.FS

// Render parses dashboard templates and writes rendered dashboards to outDir.
// Templates read the datasource uid from GREPTIMEDB_DATASOURCE_UID.
func Render(outDir string) error {
	funcMap := template.FuncMap{
		"env": func(key string) (string, error) {
			v := os.Getenv(key)
			if v == "" {
				return "", fmt.Errorf("environment variable %s not set", key)
			}
			return v, nil
		},
	}
	tables := map[string]string{
		"Positions": telemetry.PositionTableName,
		"Status":    telemetry.StatusTableName,
		"Metrics":   telemetry.MetricTableName,
		"Events":    telemetry.EventTableName,
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	names, err := templates.ReadDir("templates")
	if err != nil {
		return err
	}
	for _, entry := range names {
		name := entry.Name()
		t, err := template.New(name).Funcs(funcMap).ParseFS(templates, "templates/"+name)
		if err != nil {
			return err
		}
		var b strings.Builder
		if err := t.Execute(&b, tables); err != nil {
			return fmt.Errorf("render %s: %w", name, err)
		}
		if !json.Valid([]byte(b.String())) {
			return fmt.Errorf("render %s: output is not valid JSON", name)
		}
		outPath := filepath.Join(outDir, strings.TrimSuffix(name, ".tmpl"))
		if err := os.WriteFile(outPath, []byte(b.String()), 0o644); err != nil {
			return err
		}
	}
	return nil
}
