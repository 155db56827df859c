package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestDocumentTypeValid(t *testing.T) {
	assert.True(t, DocumentCPF.Valid())
	assert.True(t, DocumentCNPJ.Valid())
	assert.False(t, DocumentType("rg").Valid())
	assert.False(t, DocumentType("").Valid())
}

func TestOverlayClientWins(t *testing.T) {
	base := SupplierFields{
		DocumentType: ptr(DocumentCNPJ),
		Document:     ptr("00000000000191"),
		LegalName:    ptr("PETROLEO BRASILEIRO S A PETROBRAS"),
		City:         ptr("RIO DE JANEIRO"),
		Email:        ptr("registry@petrobras.com.br"),
	}
	top := SupplierFields{
		Document: ptr("00.000.000/0001-91"),
		Email:    ptr("compras@petrobras.com.br"),
	}

	merged := base.Overlay(top)

	assert.Equal(t, "00.000.000/0001-91", *merged.Document)
	assert.Equal(t, "compras@petrobras.com.br", *merged.Email)
	assert.Equal(t, "PETROLEO BRASILEIRO S A PETROBRAS", *merged.LegalName)
	assert.Equal(t, "RIO DE JANEIRO", *merged.City)
	assert.Nil(t, merged.State)
	// the base is left untouched
	assert.Equal(t, "registry@petrobras.com.br", *base.Email)
}

func TestApplyToMergesPresentFieldsOnly(t *testing.T) {
	s := &Supplier{
		DocumentType: DocumentCPF,
		Document:     "12345678901",
		LegalName:    "João Silva",
		City:         ptr("São Paulo"),
		State:        ptr("SP"),
	}

	SupplierFields{LegalName: ptr("João da Silva"), State: ptr("RJ")}.ApplyTo(s)

	assert.Equal(t, DocumentCPF, s.DocumentType)
	assert.Equal(t, "12345678901", s.Document)
	assert.Equal(t, "João da Silva", s.LegalName)
	require.NotNil(t, s.City)
	assert.Equal(t, "São Paulo", *s.City)
	assert.Equal(t, "RJ", *s.State)
}

func TestSupplierFromFieldsCopiesValues(t *testing.T) {
	city := "Curitiba"
	f := SupplierFields{DocumentType: ptr(DocumentCPF), Document: ptr("1"), LegalName: ptr("A"), City: &city}
	s := f.Supplier()
	city = "changed"

	assert.Equal(t, "Curitiba", *s.City)
	assert.Zero(t, s.ID)
}

func TestApplyToClearsColumns(t *testing.T) {
	s := &Supplier{
		LegalName: "Loja",
		TradeName: ptr("X"),
		City:      ptr("Santos"),
		State:     ptr("SP"),
	}

	SupplierFields{
		District: ptr("Gonzaga"),
		Cleared:  []Column{ColumnCity, ColumnTradeName},
	}.ApplyTo(s)

	assert.Nil(t, s.City)
	assert.Nil(t, s.TradeName)
	assert.Equal(t, "SP", *s.State)
	assert.Equal(t, "Gonzaga", *s.District)
	assert.Equal(t, "Loja", s.LegalName)
}

func TestOverlayClearsAndRestores(t *testing.T) {
	base := SupplierFields{
		City:    ptr("RIO DE JANEIRO"),
		Phone:   ptr("2132241510"),
		Cleared: []Column{ColumnEmail, ColumnState},
	}
	top := SupplierFields{
		State:   ptr("RJ"),
		Cleared: []Column{ColumnPhone},
	}

	merged := base.Overlay(top)

	assert.Nil(t, merged.Phone)
	assert.Equal(t, "RJ", *merged.State)
	assert.Equal(t, "RIO DE JANEIRO", *merged.City)
	assert.ElementsMatch(t, []Column{ColumnEmail, ColumnPhone}, merged.Cleared)
	assert.Equal(t, []Column{ColumnEmail, ColumnState}, base.Cleared)
}
