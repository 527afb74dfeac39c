// Package eval runs prompts against recorded cases and scores their outputs.
// Every prompt execution and every case runs inside a tracing span.
package eval

import (
	"context"
	"fmt"

	"github.com/jt828/ollyllm-go/pkg/tracing"
)

// Prompt is a versioned LLM task. Prepare builds the callable once per
// execution, which lets it resolve clients or templates lazily.
type Prompt[T, U any] struct {
	ID           string
	Version      string
	Model        string
	SystemPrompt string
	Prepare      func(ctx context.Context) (func(ctx context.Context, input T) (U, error), error)
}

// Execute runs the prompt in a span named after its id. A nil session runs it
// untraced.
func (p *Prompt[T, U]) Execute(ctx context.Context, s *tracing.Session, input T) (U, error) {
	return tracing.Trace(ctx, s, "prompt."+p.ID, func(ctx context.Context) (U, error) {
		if span := tracing.SpanFromContext(ctx); span != nil {
			span.Info("prompt", map[string]string{
				"prompt_id": p.ID,
				"version":   p.Version,
				"model":     p.Model,
			})
		}

		var zero U
		if p.Prepare == nil {
			return zero, fmt.Errorf("prompt %s: %w", p.ID, ErrIncomplete)
		}
		run, err := p.Prepare(ctx)
		if err != nil {
			return zero, fmt.Errorf("prepare prompt %s: %w", p.ID, err)
		}
		return run(ctx, input)
	})
}
