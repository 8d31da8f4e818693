package persistence

import (
	"context"
	"errors"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/factuurdesk/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements invoicing.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*invoicing.InvoiceRecord, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindLineItems returns the invoice's line items ordered by sort position.
// An invoice without lines yields an empty slice.
func (r *GormInvoiceRepository) FindLineItems(ctx context.Context, invoiceID uuid.UUID) ([]invoicing.LineItem, error) {
	var itemModels []models.LineItemModel
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("position ASC, created_at ASC").
		Find(&itemModels).Error; err != nil {
		return nil, err
	}

	items := make([]invoicing.LineItem, len(itemModels))
	for i := range itemModels {
		items[i] = itemModels[i].ToDomain()
	}
	return items, nil
}

var _ invoicing.InvoiceRepository = (*GormInvoiceRepository)(nil)
