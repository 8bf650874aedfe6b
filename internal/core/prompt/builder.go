package prompt

import (
	"strings"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// Builder produces the final prompt string per media kind. The default
// template catalog is fixed at construction; scenarios may override it
// per kind with operator-authored templates.
type Builder struct {
	defaults map[domain.MediaKind]string
}

// NewBuilder creates a Builder backed by the built-in template catalog.
func NewBuilder() *Builder {
	defaults := make(map[domain.MediaKind]string, len(defaultTemplates))
	for kind, tmpl := range defaultTemplates {
		defaults[kind] = tmpl
	}

	return &Builder{defaults: defaults}
}

// Build renders the prompt for a media kind. A non-empty scenario template
// for the kind wins over the built-in default; substitution applies to both.
// Output-format enforcement runs last and is idempotent.
func (b *Builder) Build(kind domain.MediaKind, scenario *domain.Scenario, context map[string]any) string {
	template := scenario.PromptFor(kind)
	if strings.TrimSpace(template) == "" {
		template = b.defaults[kind]
	}

	rendered := Substitute(template, context)

	return EnforceOutputFormat(kind, rendered)
}

// EnforceOutputFormat appends the kind-specific JSON instruction block unless
// the prompt already names an output format. Applying it twice yields the
// same string as applying it once: the appended block itself contains the
// format phrase.
func EnforceOutputFormat(kind domain.MediaKind, rendered string) string {
	instruction, ok := formatInstructions[kind]
	if !ok {
		return rendered
	}

	lower := strings.ToLower(rendered)
	for _, phrase := range formatPhrases {
		if strings.Contains(lower, phrase) {
			return rendered
		}
	}

	return rendered + instruction
}
