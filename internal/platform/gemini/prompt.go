package gemini

import (
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"github.com/lociapp/loci-api/internal/generation"
)

// defaultPromptTemplate ships with the binary so a prompt file is optional.
//
//go:embed prompt.tmpl
var defaultPromptTemplate string

// loadPromptTemplate parses the template at path, or the embedded default
// when path is empty.
func loadPromptTemplate(path string) (*template.Template, error) {
	content := defaultPromptTemplate
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, path, err)
		}
		content = string(raw)
	}

	tmpl, err := template.New("cards").Parse(content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	return tmpl, nil
}
