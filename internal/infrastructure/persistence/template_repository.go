package persistence

import (
	"context"
	"errors"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormTemplateRepository implements invoicing.TemplateRepository using GORM
type GormTemplateRepository struct {
	db *gorm.DB
}

// NewGormTemplateRepository creates a new GormTemplateRepository
func NewGormTemplateRepository(db *gorm.DB) *GormTemplateRepository {
	return &GormTemplateRepository{db: db}
}

// FindDefault finds the default template of a kind. With a workspace, a
// template scoped to that workspace wins over an organization-wide one.
// No default is (nil, nil).
func (r *GormTemplateRepository) FindDefault(ctx context.Context, organizationID uuid.UUID, workspaceID *uuid.UUID, kind invoicing.DocumentKind) (*invoicing.Template, error) {
	query := r.db.WithContext(ctx).
		Where("organization_id = ? AND kind = ? AND is_default = ?", organizationID, string(kind), true)
	if workspaceID != nil {
		query = query.Where("(workspace_id = ? OR workspace_id IS NULL)", *workspaceID).
			Order("workspace_id IS NULL")
	} else {
		query = query.Where("workspace_id IS NULL")
	}

	var model models.TemplateModel
	if err := query.Order("updated_at DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ invoicing.TemplateRepository = (*GormTemplateRepository)(nil)
