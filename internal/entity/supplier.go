package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// DocumentType identifies which Brazilian tax document a supplier is registered with.
type DocumentType string

const (
	DocumentCPF  DocumentType = "cpf"
	DocumentCNPJ DocumentType = "cnpj"
)

// Valid reports whether t is one of the supported document types.
func (t DocumentType) Valid() bool {
	return t == DocumentCPF || t == DocumentCNPJ
}

// Supplier is a vendor ("fornecedor") stored in the relational database.
type Supplier struct {
	bun.BaseModel `bun:"table:fornecedores"`

	ID           int64        `bun:",pk,autoincrement"`
	DocumentType DocumentType `bun:"document_type,notnull"`
	Document     string       `bun:"document,notnull,unique"`
	LegalName    string       `bun:"legal_name,notnull"`
	TradeName    *string      `bun:"trade_name"`
	Email        *string      `bun:"email"`
	Phone        *string      `bun:"phone"`
	PostalCode   *string      `bun:"postal_code"`
	Street       *string      `bun:"street"`
	Number       *string      `bun:"number"`
	Complement   *string      `bun:"complement"`
	District     *string      `bun:"district"`
	City         *string      `bun:"city"`
	State        *string      `bun:"state"`
	CreatedAt    time.Time    `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `bun:"updated_at,nullzero"`
}

// Column names a nullable supplier column.
type Column string

const (
	ColumnTradeName  Column = "trade_name"
	ColumnEmail      Column = "email"
	ColumnPhone      Column = "phone"
	ColumnPostalCode Column = "postal_code"
	ColumnStreet     Column = "street"
	ColumnNumber     Column = "number"
	ColumnComplement Column = "complement"
	ColumnDistrict   Column = "district"
	ColumnCity       Column = "city"
	ColumnState      Column = "state"
)

// SupplierFields is a partial supplier record. A nil pointer means the field was
// not supplied; Cleared lists nullable columns explicitly set to NULL.
type SupplierFields struct {
	DocumentType *DocumentType
	Document     *string
	LegalName    *string
	TradeName    *string
	Email        *string
	Phone        *string
	PostalCode   *string
	Street       *string
	Number       *string
	Complement   *string
	District     *string
	City         *string
	State        *string
	Cleared      []Column
}

// Overlay returns f with every field present in top replacing the value in f.
func (f SupplierFields) Overlay(top SupplierFields) SupplierFields {
	out := f
	pick(&out.DocumentType, top.DocumentType)
	pick(&out.Document, top.Document)
	pick(&out.LegalName, top.LegalName)
	pick(&out.TradeName, top.TradeName)
	pick(&out.Email, top.Email)
	pick(&out.Phone, top.Phone)
	pick(&out.PostalCode, top.PostalCode)
	pick(&out.Street, top.Street)
	pick(&out.Number, top.Number)
	pick(&out.Complement, top.Complement)
	pick(&out.District, top.District)
	pick(&out.City, top.City)
	pick(&out.State, top.State)

	out.Cleared = nil
	for _, col := range f.Cleared {
		if ptr := top.column(col); ptr != nil && *ptr == nil && !top.clears(col) {
			out.Cleared = append(out.Cleared, col)
		}
	}
	for _, col := range top.Cleared {
		if ptr := out.column(col); ptr != nil {
			*ptr = nil
			out.Cleared = append(out.Cleared, col)
		}
	}
	return out
}

// ApplyTo merges the present fields into s.
func (f SupplierFields) ApplyTo(s *Supplier) {
	if f.DocumentType != nil {
		s.DocumentType = *f.DocumentType
	}
	if f.Document != nil {
		s.Document = *f.Document
	}
	if f.LegalName != nil {
		s.LegalName = *f.LegalName
	}
	pick(&s.TradeName, f.TradeName)
	pick(&s.Email, f.Email)
	pick(&s.Phone, f.Phone)
	pick(&s.PostalCode, f.PostalCode)
	pick(&s.Street, f.Street)
	pick(&s.Number, f.Number)
	pick(&s.Complement, f.Complement)
	pick(&s.District, f.District)
	pick(&s.City, f.City)
	pick(&s.State, f.State)

	for _, col := range f.Cleared {
		if ptr := s.column(col); ptr != nil {
			*ptr = nil
		}
	}
}

// Supplier builds a new, unsaved supplier from the present fields.
func (f SupplierFields) Supplier() *Supplier {
	s := &Supplier{}
	f.ApplyTo(s)
	return s
}

func (f *SupplierFields) clears(col Column) bool {
	for _, c := range f.Cleared {
		if c == col {
			return true
		}
	}
	return false
}

func (f *SupplierFields) column(col Column) **string {
	switch col {
	case ColumnTradeName:
		return &f.TradeName
	case ColumnEmail:
		return &f.Email
	case ColumnPhone:
		return &f.Phone
	case ColumnPostalCode:
		return &f.PostalCode
	case ColumnStreet:
		return &f.Street
	case ColumnNumber:
		return &f.Number
	case ColumnComplement:
		return &f.Complement
	case ColumnDistrict:
		return &f.District
	case ColumnCity:
		return &f.City
	case ColumnState:
		return &f.State
	}
	return nil
}

func (s *Supplier) column(col Column) **string {
	switch col {
	case ColumnTradeName:
		return &s.TradeName
	case ColumnEmail:
		return &s.Email
	case ColumnPhone:
		return &s.Phone
	case ColumnPostalCode:
		return &s.PostalCode
	case ColumnStreet:
		return &s.Street
	case ColumnNumber:
		return &s.Number
	case ColumnComplement:
		return &s.Complement
	case ColumnDistrict:
		return &s.District
	case ColumnCity:
		return &s.City
	case ColumnState:
		return &s.State
	}
	return nil
}

func pick[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
