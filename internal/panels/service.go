package panels

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/jsonkv/internal/core"
	"github.com/JonMunkholm/jsonkv/internal/database"
	"github.com/JonMunkholm/jsonkv/internal/logging"
)

// DocumentLoader fetches stored JSON documents.
type DocumentLoader interface {
	Document(ctx context.Context, src database.Source, id string) ([]byte, error)
}

// Observer is told about every render.
type Observer interface {
	ObserveRender(panel string, result []core.Panel, elapsed time.Duration, err error)
}

// Service renders data through registered panels.
type Service struct {
	registry    *Registry
	transformer *core.Transformer
	docs        DocumentLoader
	observer    Observer
	limiter     *Limiter
}

// NewService creates a Service. lookup, docs and observer may be nil: panels
// with lookups then fail with an invalid options error, and RenderDocument
// fails for every panel.
func NewService(registry *Registry, lookup core.Lookup, docs DocumentLoader, observer Observer) *Service {
	return &Service{
		registry:    registry,
		transformer: core.NewTransformer(lookup),
		docs:        docs,
		observer:    observer,
	}
}

// LimitDocuments bounds concurrent RenderDocument calls with l.
func (s *Service) LimitDocuments(l *Limiter) {
	s.limiter = l
}

// Limiter returns the document limiter, or nil when documents are unbounded.
func (s *Service) Limiter() *Limiter {
	return s.limiter
}

// Registry returns the service's panel registry.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Render transforms raw through the named panel.
func (s *Service) Render(ctx context.Context, name string, raw any) ([]core.Panel, error) {
	p, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPanelNotFound, name)
	}
	return s.render(ctx, name, raw, p.Field, p.Options)
}

// RenderWith transforms raw with ad-hoc options, outside any registered
// panel. Lookups must match ones a registered panel declares.
func (s *Service) RenderWith(ctx context.Context, fieldName string, raw any, opts core.Options) ([]core.Panel, error) {
	if err := s.registry.CheckLookups(opts.Lookups); err != nil {
		return nil, err
	}
	return s.render(ctx, "", raw, fieldName, opts)
}

// RenderDocument loads document id from the panel's source and renders it.
func (s *Service) RenderDocument(ctx context.Context, name, id string) ([]core.Panel, error) {
	p, ok := s.registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPanelNotFound, name)
	}
	if p.Source == nil || s.docs == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoSource, name)
	}

	if s.limiter != nil {
		if err := s.limiter.Acquire(ctx, name); err != nil {
			return nil, err
		}
		defer s.limiter.Release(name)
	}

	doc, err := s.docs.Document(ctx, *p.Source, id)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, name, doc, p.Field, p.Options)
}

func (s *Service) render(ctx context.Context, name string, raw any, fieldName string, opts core.Options) ([]core.Panel, error) {
	start := time.Now()
	result, err := s.transformer.Panels(ctx, raw, fieldName, opts)
	elapsed := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveRender(name, result, elapsed, err)
	}

	logger := logging.FromContext(ctx)
	if err != nil {
		logger.Warn("render failed", "panel", name, "error", err)
		return nil, err
	}
	logger.Debug("rendered panel", "panel", name, "panels", len(result), "duration", elapsed)
	return result, nil
}
