package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

// ExecuteSqlTemplate renders the SQL template at name inside fsys.
func ExecuteSqlTemplate(fsys fs.FS, name string, params map[string]any) (string, error) {
	content, err := ReadSqlTemplate(fsys, name)
	if err != nil {
		return "", err
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return buf.String(), nil
}

// ReadSqlTemplate reads a SQL template file and returns its contents as a string
func ReadSqlTemplate(fsys fs.FS, name string) (string, error) {
	content, err := fs.ReadFile(fsys, name)
	if err != nil {
		return "", fmt.Errorf("failed to read template file: %w", err)
	}
	return string(content), nil
}

// SplitStatements splits a rendered script on ';' and drops blank statements.
// Statements must not contain literal semicolons.
func SplitStatements(script string) []string {
	var stmts []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
