package metadata

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
)

// Registry holds the set of active metadata providers. It is populated once
// during startup and read-only afterwards; the mutex guards against
// registration racing an early sync pass.
type Registry struct {
	mu        sync.RWMutex
	providers []Provider
	logger    *slog.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds a provider. It fails with a Conflict error if a provider
// with the same slug or the same priority is already registered: priority
// order must be a strict total order, so collisions on either axis are
// disallowed. The reserved slugs "user" and "gamevault" are rejected.
func (r *Registry) Register(p Provider) error {
	slug := p.Slug()
	if slug == "" {
		return errors.Validation("provider slug must not be empty")
	}
	if slug == domain.UserSource || slug == domain.CanonicalSource {
		return errors.Conflictf("provider slug %q is reserved", slug)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.providers {
		if existing.Slug() == slug {
			return errors.Conflictf("there is already a provider with slug %q", slug)
		}
		if existing.Priority() == p.Priority() {
			return errors.Conflictf("provider %q already uses priority %d", existing.Slug(), p.Priority())
		}
	}

	r.providers = append(r.providers, p)
	sort.Slice(r.providers, func(i, j int) bool {
		return r.providers[i].Priority() > r.providers[j].Priority()
	})

	r.logger.Info("registered metadata provider",
		"slug", slug,
		"priority", p.Priority(),
	)
	return nil
}

// Resolve returns the provider with the given slug, or a NotFound error if
// the slug is empty or unregistered.
func (r *Registry) Resolve(slug string) (Provider, error) {
	if slug == "" {
		return nil, errors.NotFound("no provider slug given")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.providers {
		if p.Slug() == slug {
			return p, nil
		}
	}
	return nil, errors.NotFoundf("there is no registered provider with slug %q", slug)
}

// ByPriority returns a snapshot of all providers sorted by priority
// descending (highest first). Callers iterating a batch should capture the
// snapshot once per batch, not per game.
func (r *Registry) ByPriority() []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// Len returns the number of registered providers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers)
}

// EffectivePriority resolves the priority of a metadata record: the record's
// own override if set, otherwise the registered priority of its provider. A
// record referencing an unregistered provider cannot be prioritized and
// yields a NotFound error.
func (r *Registry) EffectivePriority(record *domain.GameMetadata) (int, error) {
	if record.ProviderPriority != nil {
		return *record.ProviderPriority, nil
	}
	p, err := r.Resolve(record.ProviderSlug)
	if err != nil {
		return 0, err
	}
	return p.Priority(), nil
}
