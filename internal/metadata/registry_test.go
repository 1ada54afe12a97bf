package metadata

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gamevaultapp/gamevault-server/internal/domain"
	"github.com/gamevaultapp/gamevault-server/internal/errors"
)

// fakeProvider is a minimal in-memory Provider for registry and merge tests.
type fakeProvider struct {
	slug     string
	priority int

	searchResults []MinimalGameMetadata
	records       map[string]*domain.GameMetadata
	bestMatch     *domain.GameMetadata
	err           error
}

func (f *fakeProvider) Slug() string  { return f.slug }
func (f *fakeProvider) Priority() int { return f.priority }

func (f *fakeProvider) Search(_ context.Context, _ string) ([]MinimalGameMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchResults, nil
}

func (f *fakeProvider) GetBestMatch(_ context.Context, _ *domain.Game) (*domain.GameMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.bestMatch == nil {
		return nil, errors.NotFoundf("no match on %s", f.slug)
	}
	return f.bestMatch.Clone(), nil
}

func (f *fakeProvider) GetByProviderDataID(_ context.Context, id string) (*domain.GameMetadata, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.NotFoundf("%s has no record %q", f.slug, id)
	}
	return rec.Clone(), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry(testLogger())

	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))
	require.NoError(t, reg.Register(&fakeProvider{slug: "igdb", priority: 10}))
	assert.Equal(t, 2, reg.Len())

	p, err := reg.Resolve("rawg")
	require.NoError(t, err)
	assert.Equal(t, 20, p.Priority())
}

func TestRegistry_RegisterDuplicateSlug(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))

	err := reg.Register(&fakeProvider{slug: "rawg", priority: 30})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestRegistry_RegisterDuplicatePriority(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))

	err := reg.Register(&fakeProvider{slug: "igdb", priority: 20})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConflict))
}

func TestRegistry_RegisterReservedSlugs(t *testing.T) {
	reg := NewRegistry(testLogger())

	for _, slug := range []string{"user", "gamevault"} {
		err := reg.Register(&fakeProvider{slug: slug, priority: 1})
		require.Error(t, err, "slug %q must be rejected", slug)
		assert.True(t, errors.Is(err, errors.ErrConflict))
	}
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_RegisterEmptySlug(t *testing.T) {
	reg := NewRegistry(testLogger())
	err := reg.Register(&fakeProvider{slug: "", priority: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestRegistry_Resolve(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))

	_, err := reg.Resolve("")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = reg.Resolve("steam")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestRegistry_ByPriorityDescending(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&fakeProvider{slug: "igdb", priority: 10}))
	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))
	require.NoError(t, reg.Register(&fakeProvider{slug: "steam", priority: 15}))

	got := reg.ByPriority()
	require.Len(t, got, 3)
	assert.Equal(t, "rawg", got[0].Slug())
	assert.Equal(t, "steam", got[1].Slug())
	assert.Equal(t, "igdb", got[2].Slug())
}

func TestRegistry_ByPriorityIsSnapshot(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))

	snapshot := reg.ByPriority()
	require.NoError(t, reg.Register(&fakeProvider{slug: "igdb", priority: 30}))

	assert.Len(t, snapshot, 1, "earlier snapshot must be unaffected by later registration")
	assert.Len(t, reg.ByPriority(), 2)
}

func TestRegistry_EffectivePriority(t *testing.T) {
	reg := NewRegistry(testLogger())
	require.NoError(t, reg.Register(&fakeProvider{slug: "rawg", priority: 20}))

	rec := &domain.GameMetadata{ProviderSlug: "rawg"}
	p, err := reg.EffectivePriority(rec)
	require.NoError(t, err)
	assert.Equal(t, 20, p)

	override := 99
	rec.ProviderPriority = &override
	p, err = reg.EffectivePriority(rec)
	require.NoError(t, err)
	assert.Equal(t, 99, p)

	// Override works even when the provider is gone.
	gone := &domain.GameMetadata{ProviderSlug: "defunct", ProviderPriority: &override}
	p, err = reg.EffectivePriority(gone)
	require.NoError(t, err)
	assert.Equal(t, 99, p)

	// Without an override an unregistered provider cannot be prioritized.
	_, err = reg.EffectivePriority(&domain.GameMetadata{ProviderSlug: "defunct"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
