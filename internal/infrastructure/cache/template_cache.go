package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultTemplateTTL applies when no TTL is configured
const DefaultTemplateTTL = 5 * time.Minute

// TemplateCache is a read-through cache in front of a template repository.
// An absent default is cached too, so organizations without a custom
// template do not hit the database on every render.
type TemplateCache struct {
	repo   invoicing.TemplateRepository
	store  Store
	ttl    time.Duration
	logger *zap.Logger
}

// cachedTemplate is the stored form; Found=false records an absent default
type cachedTemplate struct {
	Found          bool       `json:"found"`
	ID             uuid.UUID  `json:"id,omitempty"`
	OrganizationID uuid.UUID  `json:"organization_id,omitempty"`
	WorkspaceID    *uuid.UUID `json:"workspace_id,omitempty"`
	Name           string     `json:"name,omitempty"`
	Kind           string     `json:"kind,omitempty"`
	HTMLContent    string     `json:"html_content,omitempty"`
	IsDefault      bool       `json:"is_default,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewTemplateCache wraps repo with store
func NewTemplateCache(repo invoicing.TemplateRepository, store Store, ttl time.Duration, log *zap.Logger) *TemplateCache {
	if ttl <= 0 {
		ttl = DefaultTemplateTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TemplateCache{
		repo:   repo,
		store:  store,
		ttl:    ttl,
		logger: log.Named("template_cache"),
	}
}

// FindDefault returns the cached default template, loading it from the
// repository on a miss. Cache failures degrade to a direct lookup.
func (c *TemplateCache) FindDefault(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) (*invoicing.Template, error) {
	key := templateKey(organizationID, workspaceID, kind)
	log := logger.Enrich(ctx, c.logger).With(zap.String("key", key))

	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		var entry cachedTemplate
		if jsonErr := json.Unmarshal(raw, &entry); jsonErr == nil {
			log.Debug("Template cache hit")
			return entry.toDomain(), nil
		}
		log.Warn("Discarding unreadable template cache entry")
	case !errors.Is(err, ErrMiss):
		log.Warn("Template cache read failed", zap.Error(err))
	}

	tmpl, err := c.repo.FindDefault(ctx, organizationID, workspaceID, kind)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(fromDomain(tmpl))
	if err == nil {
		err = c.store.Set(ctx, key, payload, c.ttl)
	}
	if err != nil {
		log.Warn("Template cache write failed", zap.Error(err))
	}
	return tmpl, nil
}

// Invalidate drops the cached default for the given scope
func (c *TemplateCache) Invalidate(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) error {
	return c.store.Delete(ctx, templateKey(organizationID, workspaceID, kind))
}

func templateKey(organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) string {
	scope := "org"
	if workspaceID != nil {
		scope = workspaceID.String()
	}
	return "template:default:" + organizationID.String() + ":" + scope + ":" + string(kind)
}

func fromDomain(t *invoicing.Template) cachedTemplate {
	if t == nil {
		return cachedTemplate{}
	}
	return cachedTemplate{
		Found:          true,
		ID:             t.ID,
		OrganizationID: t.OrganizationID,
		WorkspaceID:    t.WorkspaceID,
		Name:           t.Name,
		Kind:           string(t.Kind),
		HTMLContent:    t.HTMLContent,
		IsDefault:      t.IsDefault,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func (e cachedTemplate) toDomain() *invoicing.Template {
	if !e.Found {
		return nil
	}
	return &invoicing.Template{
		OrganizationEntity: shared.OrganizationEntity{
			BaseEntity: shared.BaseEntity{
				ID:        e.ID,
				CreatedAt: e.CreatedAt,
				UpdatedAt: e.UpdatedAt,
			},
			OrganizationID: e.OrganizationID,
			WorkspaceID:    e.WorkspaceID,
		},
		Name:        e.Name,
		Kind:        invoicing.DocumentKind(e.Kind),
		HTMLContent: e.HTMLContent,
		IsDefault:   e.IsDefault,
	}
}

var _ invoicing.TemplateRepository = (*TemplateCache)(nil)
