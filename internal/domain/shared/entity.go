package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity provides common fields for all entities
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates a new base entity with generated ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// OrganizationEntity is an entity owned by an organization and optionally
// narrowed to one of its workspaces.
type OrganizationEntity struct {
	BaseEntity
	OrganizationID uuid.UUID
	WorkspaceID    *uuid.UUID
}

// NewOrganizationEntity creates an organization-owned entity
func NewOrganizationEntity(organizationID uuid.UUID) OrganizationEntity {
	return OrganizationEntity{
		BaseEntity:     NewBaseEntity(),
		OrganizationID: organizationID,
	}
}

// InWorkspace reports whether the entity is visible from the given workspace.
// Organization-wide entities are visible from every workspace.
func (e *OrganizationEntity) InWorkspace(workspaceID uuid.UUID) bool {
	return e.WorkspaceID == nil || *e.WorkspaceID == workspaceID
}
