package models

import (
	"time"

	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// BaseModel provides common persistence fields for all models.
// It maps to the domain's BaseEntity.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// OrganizationModel adds ownership columns for organization-scoped tables
type OrganizationModel struct {
	BaseModel
	OrganizationID uuid.UUID  `gorm:"type:uuid;not null;index"`
	WorkspaceID    *uuid.UUID `gorm:"type:uuid;index"`
}

// ToDomain converts OrganizationModel to domain OrganizationEntity
func (m *OrganizationModel) ToDomain() shared.OrganizationEntity {
	return shared.OrganizationEntity{
		BaseEntity:     m.BaseModel.ToDomain(),
		OrganizationID: m.OrganizationID,
		WorkspaceID:    m.WorkspaceID,
	}
}

// OrganizationModelFromDomain creates an OrganizationModel from domain OrganizationEntity
func OrganizationModelFromDomain(e shared.OrganizationEntity) OrganizationModel {
	return OrganizationModel{
		BaseModel: BaseModel{
			ID:        e.ID,
			CreatedAt: e.CreatedAt,
			UpdatedAt: e.UpdatedAt,
		},
		OrganizationID: e.OrganizationID,
		WorkspaceID:    e.WorkspaceID,
	}
}
