// Package transform turns one segment of text into its rewritten form by
// calling a remote text-generation service.
//
// A Transformer performs one logical transformation and never retries;
// retrying belongs to the caller. Empty or whitespace-only output is returned
// as a result, not an error. Provider failures are classified into
// internal/apierr sentinels at the Completer boundary.
package transform

import (
	"context"
	"fmt"
	"strings"

	"github.com/alnah/go-cleanscript/internal/apierr"
	"github.com/alnah/go-cleanscript/internal/lang"
	"github.com/alnah/go-cleanscript/internal/template"
)

// Transformer rewrites a single segment.
// Implementations must be safe for concurrent use.
type Transformer interface {
	Transform(ctx context.Context, text string) (string, error)
}

// Func adapts a plain function to Transformer.
type Func func(ctx context.Context, text string) (string, error)

// Transform calls f.
func (f Func) Transform(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// Completer performs exactly one chat-style call to a provider.
// system carries the instructions, user the content to rewrite.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ Transformer = (*Direct)(nil)
	_ Transformer = (*PlanThenGenerate)(nil)
	_ Transformer = Func(nil)
)

// Direct rewrites a segment with a single remote call.
type Direct struct {
	completer Completer
	system    string
}

// NewDirect builds a single-call transformer for style, forcing the output
// language when outputLang is set.
func NewDirect(c Completer, style template.Name, outputLang lang.Language) *Direct {
	return &Direct{
		completer: c,
		system:    style.System(outputLang),
	}
}

// Transform sends the style prompt and text in one call.
func (d *Direct) Transform(ctx context.Context, text string) (string, error) {
	return d.completer.Complete(ctx, d.system, text)
}

// PlanThenGenerate rewrites a segment with two chained calls: the first asks
// for a short outline, the second rewrites the text following that outline.
type PlanThenGenerate struct {
	completer Completer
	generate  string
}

// NewPlanThenGenerate builds a two-step transformer for style.
func NewPlanThenGenerate(c Completer, style template.Name, outputLang lang.Language) *PlanThenGenerate {
	return &PlanThenGenerate{
		completer: c,
		generate:  style.GenerateSystem(outputLang),
	}
}

// Transform runs the plan call then the generate call.
// An empty plan fails the whole transformation with apierr.ErrEmptyResult.
func (p *PlanThenGenerate) Transform(ctx context.Context, text string) (string, error) {
	plan, err := p.completer.Complete(ctx, template.PlanSystem, text)
	if err != nil {
		return "", fmt.Errorf("plan: %w", err)
	}
	plan = strings.TrimSpace(plan)
	if plan == "" {
		return "", fmt.Errorf("plan: %w", apierr.ErrEmptyResult)
	}

	out, err := p.completer.Complete(ctx, p.generate, template.PlanUserMessage(plan, text))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return out, nil
}
