package ai

import (
	"log/slog"
)

// Hints carries caller-declared metadata that influences provider selection.
type Hints struct {
	// DocType is the declared document type ("code", "documentation",
	// "personal", ...). Empty means undeclared.
	DocType string

	// Language is the declared natural or programming language. Informational;
	// routing currently keys off DocType and text heuristics.
	Language string

	// Personal marks content from a personal collection, which prefers the
	// writing-specialized provider.
	Personal bool
}

// Selection is the routing decision for one piece of content.
type Selection struct {
	Provider   ProviderName
	Model      string
	Dimensions int
}

// Router chooses an embedding provider for a piece of content. The decision
// is pure given the inputs and the current budget state, so index-time and
// query-time routing of the same content always agree unless the budget
// state changed in between.
type Router struct {
	registry Registry
	guard    FallbackPolicy
	logger   *slog.Logger
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithRouterLogger sets a custom logger. Default is slog.Default().
func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
	}
}

// NewRouter creates a router over the given provider registry, consulting the
// guard for forced-fallback state before every decision.
func NewRouter(registry Registry, guard FallbackPolicy, opts ...RouterOption) (*Router, error) {
	if registry == nil {
		return nil, ErrUnknownProvider
	}
	if guard == nil {
		return nil, ErrBudgetGuardRequired
	}
	r := &Router{
		registry: registry,
		guard:    guard,
		logger:   slog.Default().With("component", "embedding-router"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// SelectProvider decides which provider embeds the given content.
//
// Priority order, first match wins:
//  1. budget forced-fallback: the free local provider
//  2. code content (declared or detected): the code provider
//  3. personal writing (declared): the writing provider
//  4. everything else: the documentation provider
func (r *Router) SelectProvider(text string, hints Hints) (Selection, error) {
	name := r.classify(text, hints)
	return r.selection(name)
}

// SelectByName resolves a previously recorded provider name, re-applying the
// budget fallback rule. Used at query time for collections pinned to a
// provider.
func (r *Router) SelectByName(name ProviderName) (Selection, error) {
	if r.guard.ForcedFallback() {
		client, err := r.registry.Client(name)
		// A pinned free provider stays selected under fallback; only paid
		// providers are substituted.
		if err == nil && !client.IsPaid() {
			return r.selection(name)
		}
		return r.selection(ProviderLocal)
	}
	return r.selection(name)
}

// Client resolves a selection to its embedding client.
func (r *Router) Client(sel Selection) (EmbeddingClient, error) {
	return r.registry.Client(sel.Provider)
}

func (r *Router) classify(text string, hints Hints) ProviderName {
	if r.guard.ForcedFallback() {
		r.logger.Debug("budget fallback active, routing to local provider")
		return ProviderLocal
	}
	if hints.DocType == DocTypeCode || LooksLikeCode(text) {
		return ProviderCode
	}
	if hints.Personal || hints.DocType == DocTypePersonal {
		return ProviderWriting
	}
	return ProviderDocs
}

func (r *Router) selection(name ProviderName) (Selection, error) {
	client, err := r.registry.Client(name)
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Provider:   client.Name(),
		Model:      client.Model(),
		Dimensions: client.Dimensions(),
	}, nil
}
