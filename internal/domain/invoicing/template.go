package invoicing

import (
	"strings"
	"time"

	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Template is a named HTML document asset containing placeholder tokens.
// The rendering pipeline only ever reads it.
type Template struct {
	shared.OrganizationEntity
	Name        string
	Kind        DocumentKind
	HTMLContent string
	IsDefault   bool
}

// NewTemplate creates a template for the given organization
func NewTemplate(organizationID uuid.UUID, kind DocumentKind, name, content string) (*Template, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Invalid document kind")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_TEMPLATE_NAME", "Template name cannot exceed 100 characters")
	}

	return &Template{
		OrganizationEntity: shared.NewOrganizationEntity(organizationID),
		Name:               strings.TrimSpace(name),
		Kind:               kind,
		HTMLContent:        content,
	}, nil
}

// IsBlank reports whether the template has no usable markup.
// A nil template is blank.
func (t *Template) IsBlank() bool {
	return t == nil || strings.TrimSpace(t.HTMLContent) == ""
}

// MarkDefault flags the template as its organization's default for its kind
func (t *Template) MarkDefault() {
	t.IsDefault = true
	t.UpdatedAt = time.Now()
}
