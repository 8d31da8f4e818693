package invoicing

// CompanyProfile is the issuing party's letterhead data. It comes from
// configuration, not from the data store.
type CompanyProfile struct {
	Name               string
	Address            string
	PostalCode         string
	City               string
	Phone              string
	Email              string
	RegistrationNumber string // chamber of commerce (KvK)
	TaxNumber          string // VAT id (BTW)
	BankAccount        string // IBAN
	BankIdentifier     string // BIC
	LogoURL            string
}
