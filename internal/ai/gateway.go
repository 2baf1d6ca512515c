package ai

import (
	"context"
	"fmt"
	"log"

	"olympiad-quiz-service/internal/domain"
)

// GenerationRequest is the logical request contract for a question batch.
type GenerationRequest struct {
	Subject     domain.Subject
	Topics      []string
	Count       int
	Difficulty  domain.Difficulty
	Grade       domain.Grade
	ExcludedIDs []string
}

// Provider is one concrete generative backend.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req GenerationRequest) ([]domain.Question, error)
	Revalidate(ctx context.Context, q domain.Question) (domain.Question, error)
	Suggest(ctx context.Context, grade domain.Grade, topics []string) (string, error)
}

// Gateway fronts the generative backends with a two-tier failover: the
// primary provider is tried first, and on failure the entire request is
// retried once against the fallback. There is no retry beyond that hop;
// callers decide whether to retry at the user-action level.
type Gateway struct {
	primary  Provider
	fallback Provider // nil when unconfigured
}

func NewGateway(primary, fallback Provider) *Gateway {
	return &Gateway{primary: primary, fallback: fallback}
}

// Generate produces a structured question batch. An empty or malformed
// response counts as a provider failure, not an empty success.
func (g *Gateway) Generate(ctx context.Context, req GenerationRequest) ([]domain.Question, error) {
	questions, err := g.generateWith(ctx, g.primary, req)
	if err == nil {
		return questions, nil
	}
	log.Printf("ai: %s generation failed, trying fallback: %v", g.primary.Name(), err)

	if g.fallback == nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	questions, ferr := g.generateWith(ctx, g.fallback, req)
	if ferr != nil {
		return nil, fmt.Errorf("%w: %s: %v; %s: %v",
			domain.ErrGenerationFailed, g.primary.Name(), err, g.fallback.Name(), ferr)
	}
	return questions, nil
}

func (g *Gateway) generateWith(ctx context.Context, p Provider, req GenerationRequest) ([]domain.Question, error) {
	batch, err := p.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	valid := batch[:0:0]
	for _, q := range batch {
		if verr := q.Validate(); verr != nil {
			log.Printf("ai: %s returned malformed question, dropping: %v", p.Name(), verr)
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("%s returned no usable questions", p.Name())
	}
	return valid, nil
}

// Revalidate fact-checks a single question and returns either the identical
// object (confirmed) or a corrected one with the same ID. A response whose ID
// differs from the input violates the contract and counts as provider failure.
func (g *Gateway) Revalidate(ctx context.Context, q domain.Question) (domain.Question, error) {
	checked, err := g.revalidateWith(ctx, g.primary, q)
	if err == nil {
		return checked, nil
	}
	log.Printf("ai: %s revalidation of %s failed, trying fallback: %v", g.primary.Name(), q.ID, err)

	if g.fallback == nil {
		return domain.Question{}, fmt.Errorf("%w: %v", domain.ErrRevalidationFailed, err)
	}
	checked, ferr := g.revalidateWith(ctx, g.fallback, q)
	if ferr != nil {
		return domain.Question{}, fmt.Errorf("%w: %s: %v; %s: %v",
			domain.ErrRevalidationFailed, g.primary.Name(), err, g.fallback.Name(), ferr)
	}
	return checked, nil
}

func (g *Gateway) revalidateWith(ctx context.Context, p Provider, q domain.Question) (domain.Question, error) {
	checked, err := p.Revalidate(ctx, q)
	if err != nil {
		return domain.Question{}, err
	}
	if checked.ID != q.ID {
		return domain.Question{}, fmt.Errorf("%w: got %q, want %q", domain.ErrIdentityChanged, checked.ID, q.ID)
	}
	if err := checked.Validate(); err != nil {
		return domain.Question{}, err
	}
	return checked, nil
}

// Suggest produces weak-area improvement suggestions for the given incorrect
// topics. Callers degrade to a canned message on error.
func (g *Gateway) Suggest(ctx context.Context, grade domain.Grade, topics []string) (string, error) {
	text, err := g.primary.Suggest(ctx, grade, topics)
	if err == nil {
		return text, nil
	}
	log.Printf("ai: %s suggestion failed, trying fallback: %v", g.primary.Name(), err)
	if g.fallback == nil {
		return "", err
	}
	return g.fallback.Suggest(ctx, grade, topics)
}
