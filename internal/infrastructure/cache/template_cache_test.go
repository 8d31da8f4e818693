package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRepo struct {
	tmpl  *invoicing.Template
	err   error
	calls int
}

func (r *countingRepo) FindDefault(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ invoicing.DocumentKind) (*invoicing.Template, error) {
	r.calls++
	return r.tmpl, r.err
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) Delete(context.Context, ...string) error { return nil }

func (brokenStore) Close() error { return nil }

func newTemplate(t *testing.T, orgID uuid.UUID) *invoicing.Template {
	t.Helper()
	tmpl, err := invoicing.NewTemplate(orgID, invoicing.DocumentKindInvoice, "Huisstijl", "<p>{{invoice_number}}</p>")
	require.NoError(t, err)
	tmpl.MarkDefault()
	return tmpl
}

func TestTemplateCache_ReadThrough(t *testing.T) {
	orgID := uuid.New()
	repo := &countingRepo{tmpl: newTemplate(t, orgID)}
	store := NewMemoryStore(nil)
	defer store.Close()
	c := NewTemplateCache(repo, store, time.Minute, nil)
	ctx := context.Background()

	first, err := c.FindDefault(ctx, orgID, nil, invoicing.DocumentKindInvoice)
	require.NoError(t, err)
	second, err := c.FindDefault(ctx, orgID, nil, invoicing.DocumentKindInvoice)
	require.NoError(t, err)

	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.HTMLContent, second.HTMLContent)
	assert.Equal(t, invoicing.DocumentKindInvoice, second.Kind)
	assert.True(t, second.IsDefault)

	hits, misses := store.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestTemplateCache_CachesAbsence(t *testing.T) {
	repo := &countingRepo{}
	store := NewMemoryStore(nil)
	defer store.Close()
	c := NewTemplateCache(repo, store, time.Minute, nil)

	for range 3 {
		tmpl, err := c.FindDefault(context.Background(), uuid.New(), nil, invoicing.DocumentKindQuote)
		require.NoError(t, err)
		assert.Nil(t, tmpl)
	}
	assert.Equal(t, 3, repo.calls, "distinct organizations are distinct keys")

	orgID := uuid.New()
	_, _ = c.FindDefault(context.Background(), orgID, nil, invoicing.DocumentKindQuote)
	_, _ = c.FindDefault(context.Background(), orgID, nil, invoicing.DocumentKindQuote)
	assert.Equal(t, 4, repo.calls)
}

func TestTemplateCache_WorkspaceScopesAreSeparate(t *testing.T) {
	orgID, ws := uuid.New(), uuid.New()
	repo := &countingRepo{tmpl: newTemplate(t, orgID)}
	store := NewMemoryStore(nil)
	defer store.Close()
	c := NewTemplateCache(repo, store, time.Minute, nil)

	_, _ = c.FindDefault(context.Background(), orgID, nil, invoicing.DocumentKindInvoice)
	_, _ = c.FindDefault(context.Background(), orgID, &ws, invoicing.DocumentKindInvoice)
	assert.Equal(t, 2, repo.calls)
}

func TestTemplateCache_RepositoryErrorIsNotCached(t *testing.T) {
	orgID := uuid.New()
	repo := &countingRepo{err: errors.New("db down")}
	store := NewMemoryStore(nil)
	defer store.Close()
	c := NewTemplateCache(repo, store, time.Minute, nil)

	_, err := c.FindDefault(context.Background(), orgID, nil, invoicing.DocumentKindInvoice)
	assert.EqualError(t, err, "db down")

	repo.err = nil
	repo.tmpl = newTemplate(t, orgID)
	tmpl, err := c.FindDefault(context.Background(), orgID, nil, invoicing.DocumentKindInvoice)
	require.NoError(t, err)
	assert.NotNil(t, tmpl)
}

func TestTemplateCache_Invalidate(t *testing.T) {
	orgID := uuid.New()
	repo := &countingRepo{tmpl: newTemplate(t, orgID)}
	store := NewMemoryStore(nil)
	defer store.Close()
	c := NewTemplateCache(repo, store, time.Minute, nil)
	ctx := context.Background()

	_, _ = c.FindDefault(ctx, orgID, nil, invoicing.DocumentKindInvoice)
	require.NoError(t, c.Invalidate(ctx, orgID, nil, invoicing.DocumentKindInvoice))
	_, _ = c.FindDefault(ctx, orgID, nil, invoicing.DocumentKindInvoice)
	assert.Equal(t, 2, repo.calls)
}

func TestTemplateCache_StoreFailureFallsThrough(t *testing.T) {
	orgID := uuid.New()
	repo := &countingRepo{tmpl: newTemplate(t, orgID)}
	c := NewTemplateCache(repo, brokenStore{}, 0, nil)

	tmpl, err := c.FindDefault(context.Background(), orgID, nil, invoicing.DocumentKindInvoice)
	require.NoError(t, err)
	assert.Equal(t, repo.tmpl.ID, tmpl.ID)
	assert.Equal(t, DefaultTemplateTTL, c.ttl)
}
