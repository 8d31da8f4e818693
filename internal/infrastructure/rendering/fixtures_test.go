package rendering_test

import (
	"time"

	"github.com/factuurdesk/backend/internal/domain/invoicing"
	"github.com/factuurdesk/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func sampleInvoice() *invoicing.InvoiceRecord {
	return &invoicing.InvoiceRecord{
		OrganizationEntity: shared.NewOrganizationEntity(uuid.New()),
		Number:             "2025-185",
		IssueDate:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		DueDate:            time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		PaymentTerms:       30,
		Client: invoicing.Client{
			Name:       "Acme BV",
			Address:    "Keizersgracht 1",
			PostalCode: "1015 CJ",
			City:       "Amsterdam",
		},
		Subject: "Advieswerkzaamheden juni",
		Notes:   "Bedankt voor de opdracht",
		TaxRate: decimal.NewFromInt(21),
		Status:  invoicing.StatusSent,
	}
}

func sampleLineItems() []invoicing.LineItem {
	return []invoicing.LineItem{
		{Description: "Reiskosten", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("25.00"), TaxRate: decimal.NewFromInt(21), Position: 2},
		{Description: "Consult", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("100.00"), TaxRate: decimal.NewFromInt(21), Position: 1},
	}
}

func sampleCompany() invoicing.CompanyProfile {
	return invoicing.CompanyProfile{
		Name:               "Factuurdesk BV",
		Address:            "Stationsplein 12",
		PostalCode:         "3511 ED",
		City:               "Utrecht",
		Phone:              "030-1234567",
		Email:              "info@factuurdesk.nl",
		RegistrationNumber: "12345678",
		TaxNumber:          "NL001234567B01",
		BankAccount:        "NL91ABNA0417164300",
		BankIdentifier:     "ABNANL2A",
		LogoURL:            "https://cdn.example.com/logo.png",
	}
}
