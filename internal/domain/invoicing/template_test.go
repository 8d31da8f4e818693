package invoicing

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplate(t *testing.T) {
	orgID := uuid.New()

	tmpl, err := NewTemplate(orgID, DocumentKindInvoice, " Standaard ", "<p>{{invoice_number}}</p>")
	require.NoError(t, err)
	assert.Equal(t, "Standaard", tmpl.Name)
	assert.False(t, tmpl.IsDefault)

	_, err = NewTemplate(orgID, DocumentKind("receipt"), "x", "")
	assert.Error(t, err)

	_, err = NewTemplate(orgID, DocumentKindQuote, "", "")
	assert.Error(t, err)

	_, err = NewTemplate(orgID, DocumentKindQuote, strings.Repeat("a", 101), "")
	assert.Error(t, err)
}

func TestTemplate_IsBlank(t *testing.T) {
	var nilTemplate *Template
	assert.True(t, nilTemplate.IsBlank())
	assert.True(t, (&Template{HTMLContent: ""}).IsBlank())
	assert.True(t, (&Template{HTMLContent: " \n\t "}).IsBlank())
	assert.False(t, (&Template{HTMLContent: "<div></div>"}).IsBlank())
}

func TestTemplate_InWorkspace(t *testing.T) {
	ws := uuid.New()
	tmpl, err := NewTemplate(uuid.New(), DocumentKindInvoice, "Scoped", "<div></div>")
	require.NoError(t, err)

	assert.True(t, tmpl.InWorkspace(ws), "organization-wide templates are visible everywhere")

	other := uuid.New()
	tmpl.WorkspaceID = &other
	assert.False(t, tmpl.InWorkspace(ws))
	assert.True(t, tmpl.InWorkspace(other))
}

func TestDocumentKind_FilePrefix(t *testing.T) {
	assert.Equal(t, "factuur", DocumentKindInvoice.FilePrefix())
	assert.Equal(t, "offerte", DocumentKindQuote.FilePrefix())
}
