// Package prompt renders the classification prompt from the user's input and
// the corrections retrieved for it.
package prompt

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/jcpsimmons/teachat/pkg/database"
)

const (
	VarInput      = "input"
	VarCorrection = "correction"
)

//go:embed template.txt
var defaultTemplate string

// Builder fills a fixed f-string template. Only {input} and {correction} are
// recognised; literal braces are written {{ and }}.
type Builder struct {
	template prompts.PromptTemplate
}

func NewBuilder() *Builder {
	b, _ := newBuilder(defaultTemplate)
	return b
}

// LoadBuilder uses the template stored at path instead of the built-in one.
func LoadBuilder(path string) (*Builder, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt template: %w", err)
	}
	return newBuilder(string(data))
}

func newBuilder(text string) (*Builder, error) {
	b := &Builder{
		template: prompts.PromptTemplate{
			Template:       text,
			InputVariables: []string{VarInput, VarCorrection},
			TemplateFormat: prompts.TemplateFormatFString,
		},
	}

	// render once so a broken override fails at startup, not on a user turn
	if _, err := b.template.Format(map[string]any{VarInput: "", VarCorrection: ""}); err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	return b, nil
}

// Build renders the prompt. The retrieved corrections are joined with
// newlines in the order given.
func (b *Builder) Build(userInput string, examples []database.Example) (string, error) {
	return b.template.Format(map[string]any{
		VarInput:      userInput,
		VarCorrection: Context(examples),
	})
}

// Context is the text substituted for {correction}.
func Context(examples []database.Example) string {
	corrections := make([]string, 0, len(examples))
	for _, e := range examples {
		corrections = append(corrections, e.Correction)
	}
	return strings.Join(corrections, "\n")
}
