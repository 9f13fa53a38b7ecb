package intent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	nameMaxTokens     = 20
	categoryMaxTokens = 30
)

const namePromptTemplate = "What employee name is mentioned in this query: '%s'? " +
	"Respond with just the name or 'none' if no specific employee name is mentioned."

const categoryPromptTemplate = "For this query '%s', which category best fits: %s? " +
	"Respond with just the category name."

// Generator produces a short completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, maxTokens int) (string, error)
}

// ModelLabeler implements Labeler on top of a text-generation model.
type ModelLabeler struct {
	gen     Generator
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// NewModelLabeler creates a ModelLabeler. Each generation call is bounded by
// timeout; a non-positive timeout leaves calls bounded only by ctx.
func NewModelLabeler(gen Generator, model string, timeout time.Duration) *ModelLabeler {
	return &ModelLabeler{gen: gen, model: model, timeout: timeout, logger: slog.Default()}
}

// BuildNamePrompt returns the name-extraction prompt for question.
func BuildNamePrompt(question string) string {
	return fmt.Sprintf(namePromptTemplate, question)
}

// BuildCategoryPrompt returns the categorization prompt offering labels.
func BuildCategoryPrompt(question string, labels []Type) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = string(l)
	}
	return fmt.Sprintf(categoryPromptTemplate, question, strings.Join(names, ", "))
}

// ExtractName treats empty output, the token "none" and generation errors
// alike: no name.
func (l *ModelLabeler) ExtractName(ctx context.Context, question string) (string, bool) {
	out, err := l.generate(ctx, BuildNamePrompt(question), nameMaxTokens)
	if err != nil {
		l.logger.Warn("name extraction failed", "error", err)
		return "", false
	}
	name := strings.TrimSpace(out)
	if name == "" || strings.EqualFold(name, NoParameter) {
		return "", false
	}
	return name, true
}

// Categorize returns the lower-cased model output, or "" when generation fails.
func (l *ModelLabeler) Categorize(ctx context.Context, question string, labels []Type) string {
	out, err := l.generate(ctx, BuildCategoryPrompt(question, labels), categoryMaxTokens)
	if err != nil {
		l.logger.Warn("categorization failed", "error", err)
		return ""
	}
	return strings.ToLower(strings.TrimSpace(out))
}

func (l *ModelLabeler) generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	return l.gen.Generate(ctx, l.model, prompt, maxTokens)
}
