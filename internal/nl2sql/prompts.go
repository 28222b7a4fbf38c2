package nl2sql

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"text/template"
)

const (
	SQLTemplateName     = "sql.v1.tmpl"
	ExplainTemplateName = "explain.v1.tmpl"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// Prompts renders the instruction texts sent to the generation backend.
type Prompts struct {
	sql     *template.Template
	explain *template.Template
}

// LoadPrompts parses the embedded templates. Files present in dir replace
// their embedded counterpart; an empty dir uses the embedded set only.
func LoadPrompts(dir string) (*Prompts, error) {
	var override fs.FS
	if strings.TrimSpace(dir) != "" {
		override = os.DirFS(dir)
	}
	return LoadPromptsFS(override)
}

func LoadPromptsFS(override fs.FS) (*Prompts, error) {
	sqlTmpl, err := parseTemplate(override, SQLTemplateName)
	if err != nil {
		return nil, err
	}
	explainTmpl, err := parseTemplate(override, ExplainTemplateName)
	if err != nil {
		return nil, err
	}
	return &Prompts{sql: sqlTmpl, explain: explainTmpl}, nil
}

// SQL renders the translation instructions for question.
func (p *Prompts) SQL(question string) (string, error) {
	return render(p.sql, map[string]string{"Question": question})
}

// Explain renders the summary instructions for question and the rendered
// result table.
func (p *Prompts) Explain(question, data string) (string, error) {
	return render(p.explain, map[string]string{"Question": question, "Data": data})
}

func parseTemplate(override fs.FS, name string) (*template.Template, error) {
	var raw []byte
	var err error
	if override != nil {
		raw, err = fs.ReadFile(override, name)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read prompt template %s: %w", name, err)
		}
	}
	if raw == nil {
		raw, err = embeddedTemplates.ReadFile("templates/" + name)
		if err != nil {
			return nil, fmt.Errorf("read embedded prompt template %s: %w", name, err)
		}
	}
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse prompt template %s: %w", name, err)
	}
	return tmpl, nil
}

func render(tmpl *template.Template, data map[string]string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
