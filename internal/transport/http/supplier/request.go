package supplier

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Additional-Code/fornecedor/internal/entity"
	"github.com/Additional-Code/fornecedor/pkg/errorbank"
)

// attributes are the optional supplier fields accepted on create.
type attributes struct {
	TradeName  *string `json:"trade_name" validate:"omitnil,max=255"`
	Email      *string `json:"email" validate:"omitnil,max=255,email"`
	Phone      *string `json:"phone" validate:"omitnil,max=20"`
	PostalCode *string `json:"postal_code" validate:"omitnil,max=10"`
	Street     *string `json:"street" validate:"omitnil,max=255"`
	Number     *string `json:"number" validate:"omitnil,max=10"`
	Complement *string `json:"complement" validate:"omitnil,max=255"`
	District   *string `json:"district" validate:"omitnil,max=255"`
	City       *string `json:"city" validate:"omitnil,max=255"`
	State      *string `json:"state" validate:"omitnil,max=2"`
}

type createRequest struct {
	DocumentType *string `json:"document_type" validate:"required,oneof=cpf cnpj"`
	Document     *string `json:"document" validate:"required,max=255"`
	LegalName    *string `json:"legal_name" validate:"omitnil,max=255"`
	attributes
}

// updateRequest keeps track of which keys were sent. A nullable field sent as
// null or blank is cleared; the NOT NULL fields must not be.
type updateRequest struct {
	DocumentType optional `json:"document_type" validate:"omitempty,oneof=cpf cnpj"`
	Document     optional `json:"document" validate:"omitempty,max=255"`
	LegalName    optional `json:"legal_name" validate:"omitempty,max=255"`
	TradeName    optional `json:"trade_name" validate:"omitempty,max=255"`
	Email        optional `json:"email" validate:"omitempty,max=255,email"`
	Phone        optional `json:"phone" validate:"omitempty,max=20"`
	PostalCode   optional `json:"postal_code" validate:"omitempty,max=10"`
	Street       optional `json:"street" validate:"omitempty,max=255"`
	Number       optional `json:"number" validate:"omitempty,max=10"`
	Complement   optional `json:"complement" validate:"omitempty,max=255"`
	District     optional `json:"district" validate:"omitempty,max=255"`
	City         optional `json:"city" validate:"omitempty,max=255"`
	State        optional `json:"state" validate:"omitempty,max=2"`
}

// optional is a JSON string that remembers whether its key was present, so an
// explicit null can be told apart from an omitted key.
type optional struct {
	Set   bool
	Value *string
}

func (o *optional) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// blank reports a key that was sent as null or as an empty string.
func (o optional) blank() bool {
	return o.Set && (o.Value == nil || *o.Value == "")
}

// normalize trims every value and drops blank optional ones, so an empty
// trade name means "not supplied" rather than an empty string.
func (a *attributes) normalize() {
	for _, field := range []**string{
		&a.TradeName, &a.Email, &a.Phone, &a.PostalCode, &a.Street,
		&a.Number, &a.Complement, &a.District, &a.City, &a.State,
	} {
		*field = blankToNil(trim(*field))
	}
}

func (r *createRequest) normalize() {
	r.DocumentType = trim(r.DocumentType)
	r.Document = trim(r.Document)
	r.LegalName = blankToNil(trim(r.LegalName))
	r.attributes.normalize()
}

func (r *updateRequest) normalize() {
	r.DocumentType.Value = trim(r.DocumentType.Value)
	r.Document.Value = trim(r.Document.Value)
	r.LegalName.Value = trim(r.LegalName.Value)
	for _, field := range r.nullable() {
		field.opt.Value = blankToNil(trim(field.opt.Value))
	}
}

type nullableField struct {
	column entity.Column
	dst    func(*entity.SupplierFields) **string
	opt    *optional
}

func (r *updateRequest) nullable() []nullableField {
	return []nullableField{
		{entity.ColumnTradeName, func(f *entity.SupplierFields) **string { return &f.TradeName }, &r.TradeName},
		{entity.ColumnEmail, func(f *entity.SupplierFields) **string { return &f.Email }, &r.Email},
		{entity.ColumnPhone, func(f *entity.SupplierFields) **string { return &f.Phone }, &r.Phone},
		{entity.ColumnPostalCode, func(f *entity.SupplierFields) **string { return &f.PostalCode }, &r.PostalCode},
		{entity.ColumnStreet, func(f *entity.SupplierFields) **string { return &f.Street }, &r.Street},
		{entity.ColumnNumber, func(f *entity.SupplierFields) **string { return &f.Number }, &r.Number},
		{entity.ColumnComplement, func(f *entity.SupplierFields) **string { return &f.Complement }, &r.Complement},
		{entity.ColumnDistrict, func(f *entity.SupplierFields) **string { return &f.District }, &r.District},
		{entity.ColumnCity, func(f *entity.SupplierFields) **string { return &f.City }, &r.City},
		{entity.ColumnState, func(f *entity.SupplierFields) **string { return &f.State }, &r.State},
	}
}

// validate runs the struct rules and rejects blank values for NOT NULL fields.
func (r *updateRequest) validate(v *validator.Validate) error {
	fields := map[string][]string{}
	if err := v.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
		}
		for _, fe := range verrs {
			fields[fe.Field()] = append(fields[fe.Field()], message(fe))
		}
	}
	for name, opt := range map[string]optional{
		"document_type": r.DocumentType,
		"document":      r.Document,
		"legal_name":    r.LegalName,
	} {
		if opt.blank() {
			fields[name] = append(fields[name], requiredMessage(name))
		}
	}
	if len(fields) > 0 {
		return errorbank.Validation(fields)
	}
	return nil
}

func (r createRequest) fields() entity.SupplierFields {
	f := r.attributes.fields()
	f.DocumentType = documentType(r.DocumentType)
	f.Document = r.Document
	f.LegalName = r.LegalName
	return f
}

func (r *updateRequest) fields() entity.SupplierFields {
	f := entity.SupplierFields{
		DocumentType: documentType(r.DocumentType.Value),
		Document:     r.Document.Value,
		LegalName:    r.LegalName.Value,
	}
	for _, field := range r.nullable() {
		switch {
		case field.opt.Value != nil:
			*field.dst(&f) = field.opt.Value
		case field.opt.Set:
			f.Cleared = append(f.Cleared, field.column)
		}
	}
	return f
}

func (a attributes) fields() entity.SupplierFields {
	return entity.SupplierFields{
		TradeName:  a.TradeName,
		Email:      a.Email,
		Phone:      a.Phone,
		PostalCode: a.PostalCode,
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
	}
}

func documentType(v *string) *entity.DocumentType {
	if v == nil {
		return nil
	}
	t := entity.DocumentType(*v)
	return &t
}

func trim(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	return &s
}

func blankToNil(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		opt := field.Interface().(optional)
		if opt.Value == nil {
			return nil
		}
		return *opt.Value
	}, optional{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationError converts validator output into a 422 with per-field messages.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errorbank.BadRequest("invalid payload", errorbank.WithCause(err))
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], message(fe))
	}
	return errorbank.Validation(fields)
}

func requiredMessage(field string) string {
	return fmt.Sprintf("The %s field is required.", strings.ReplaceAll(field, "_", " "))
}

func message(fe validator.FieldError) string {
	label := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required", "min":
		return requiredMessage(fe.Field())
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", label, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", label)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", label)
	default:
		return fmt.Sprintf("The %s is invalid.", label)
	}
}
