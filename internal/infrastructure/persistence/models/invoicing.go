package models

import (
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the GORM model for the invoices table
type InvoiceModel struct {
	OrganizationModel
	Number           string          `gorm:"type:varchar(50);not null"`
	IssueDate        time.Time       `gorm:"type:date;not null"`
	DueDate          time.Time       `gorm:"type:date;not null"`
	PaymentTerms     int             `gorm:"not null;default:30"`
	ClientName       string          `gorm:"type:varchar(200);not null"`
	ClientEmail      string          `gorm:"type:varchar(200)"`
	ClientAddress    string          `gorm:"type:varchar(300)"`
	ClientPostalCode string          `gorm:"type:varchar(20)"`
	ClientCity       string          `gorm:"type:varchar(100)"`
	ClientCountry    string          `gorm:"type:varchar(100)"`
	Subject          string          `gorm:"type:varchar(300)"`
	Notes            string          `gorm:"type:text"`
	Subtotal         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxAmount        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxRate          decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Status           string          `gorm:"type:varchar(20);not null;default:'draft'"`
}

// TableName returns the table name for InvoiceModel
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts InvoiceModel to domain InvoiceRecord
func (m *InvoiceModel) ToDomain() *invoicing.InvoiceRecord {
	return &invoicing.InvoiceRecord{
		OrganizationEntity: m.OrganizationModel.ToDomain(),
		Number:             m.Number,
		IssueDate:          m.IssueDate,
		DueDate:            m.DueDate,
		PaymentTerms:       m.PaymentTerms,
		Client: invoicing.Client{
			Name:       m.ClientName,
			Email:      m.ClientEmail,
			Address:    m.ClientAddress,
			PostalCode: m.ClientPostalCode,
			City:       m.ClientCity,
			Country:    m.ClientCountry,
		},
		Subject:   m.Subject,
		Notes:     m.Notes,
		Subtotal:  m.Subtotal,
		TaxAmount: m.TaxAmount,
		Total:     m.Total,
		TaxRate:   m.TaxRate,
		Status:    invoicing.Status(m.Status),
	}
}

// InvoiceModelFromDomain creates an InvoiceModel from domain InvoiceRecord
func InvoiceModelFromDomain(r *invoicing.InvoiceRecord) *InvoiceModel {
	return &InvoiceModel{
		OrganizationModel: OrganizationModelFromDomain(r.OrganizationEntity),
		Number:            r.Number,
		IssueDate:         r.IssueDate,
		DueDate:           r.DueDate,
		PaymentTerms:      r.PaymentTerms,
		ClientName:        r.Client.Name,
		ClientEmail:       r.Client.Email,
		ClientAddress:     r.Client.Address,
		ClientPostalCode:  r.Client.PostalCode,
		ClientCity:        r.Client.City,
		ClientCountry:     r.Client.Country,
		Subject:           r.Subject,
		Notes:             r.Notes,
		Subtotal:          r.Subtotal,
		TaxAmount:         r.TaxAmount,
		Total:             r.Total,
		TaxRate:           r.TaxRate,
		Status:            string(r.Status),
	}
}

// LineItemModel is the GORM model for the invoice_line_items table.
// LineTotal is stored for reporting; reads recompute it from quantity and
// unit price.
type LineItemModel struct {
	BaseModel
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description string          `gorm:"type:text;not null"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Position    int             `gorm:"column:position;not null;default:0"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for LineItemModel
func (LineItemModel) TableName() string {
	return "invoice_line_items"
}

// ToDomain converts LineItemModel to domain LineItem
func (m *LineItemModel) ToDomain() invoicing.LineItem {
	return invoicing.LineItem{
		ID:          m.ID,
		InvoiceID:   m.InvoiceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		TaxRate:     m.TaxRate,
		Position:    m.Position,
	}
}

// LineItemModelFromDomain creates a LineItemModel from domain LineItem
func LineItemModelFromDomain(li invoicing.LineItem) *LineItemModel {
	now := time.Now()
	return &LineItemModel{
		BaseModel:   BaseModel{ID: li.ID, CreatedAt: now, UpdatedAt: now},
		InvoiceID:   li.InvoiceID,
		Description: li.Description,
		Quantity:    li.Quantity,
		UnitPrice:   li.UnitPrice,
		TaxRate:     li.TaxRate,
		Position:    li.Position,
		LineTotal:   li.LineTotal(),
	}
}

// TemplateModel is the GORM model for the document_templates table
type TemplateModel struct {
	OrganizationModel
	Name        string `gorm:"type:varchar(100);not null"`
	Kind        string `gorm:"type:varchar(20);not null;default:'invoice'"`
	HTMLContent string `gorm:"column:html_content;type:text;not null"`
	IsDefault   bool   `gorm:"column:is_default;not null;default:false"`
}

// TableName returns the table name for TemplateModel
func (TemplateModel) TableName() string {
	return "document_templates"
}

// ToDomain converts TemplateModel to domain Template
func (m *TemplateModel) ToDomain() *invoicing.Template {
	return &invoicing.Template{
		OrganizationEntity: m.OrganizationModel.ToDomain(),
		Name:               m.Name,
		Kind:               invoicing.DocumentKind(m.Kind),
		HTMLContent:        m.HTMLContent,
		IsDefault:          m.IsDefault,
	}
}

// TemplateModelFromDomain creates a TemplateModel from domain Template
func TemplateModelFromDomain(t *invoicing.Template) *TemplateModel {
	return &TemplateModel{
		OrganizationModel: OrganizationModelFromDomain(t.OrganizationEntity),
		Name:              t.Name,
		Kind:              string(t.Kind),
		HTMLContent:       t.HTMLContent,
		IsDefault:         t.IsDefault,
	}
}
