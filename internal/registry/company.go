package registry

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/Additional-Code/fornecedor/internal/entity"
)

// Company is a registry record projected onto supplier fields, plus read-only registry extras.
type Company struct {
	Fields      entity.SupplierFields
	Status      *string
	FoundedOn   *string
	CompanySize *string
	LegalNature *string
}

// cnpjResponse mirrors the BrasilAPI /cnpj/v1 payload; only the projected keys are decoded.
type cnpjResponse struct {
	CNPJ          text `json:"cnpj"`
	RazaoSocial   text `json:"razao_social"`
	NomeFantasia  text `json:"nome_fantasia"`
	Email         text `json:"email"`
	DDDTelefone1  text `json:"ddd_telefone_1"`
	CEP           text `json:"cep"`
	Logradouro    text `json:"logradouro"`
	Numero        text `json:"numero"`
	Complemento   text `json:"complemento"`
	Bairro        text `json:"bairro"`
	Municipio     text `json:"municipio"`
	UF            text `json:"uf"`
	Situacao      text `json:"situacao_cadastral"`
	InicioAtivid  text `json:"data_inicio_atividade"`
	Porte         text `json:"porte"`
	NaturezaJurid text `json:"natureza_juridica"`
}

func (r cnpjResponse) company() *Company {
	documentType := entity.DocumentCNPJ
	return &Company{
		Fields: entity.SupplierFields{
			DocumentType: &documentType,
			Document:     r.CNPJ.value,
			LegalName:    r.RazaoSocial.value,
			TradeName:    r.NomeFantasia.value,
			Email:        r.Email.value,
			Phone:        r.DDDTelefone1.value,
			PostalCode:   r.CEP.value,
			Street:       r.Logradouro.value,
			Number:       r.Numero.value,
			Complement:   r.Complemento.value,
			District:     r.Bairro.value,
			City:         r.Municipio.value,
			State:        r.UF.value,
		},
		Status:      r.Situacao.value,
		FoundedOn:   r.InicioAtivid.value,
		CompanySize: r.Porte.value,
		LegalNature: r.NaturezaJurid.value,
	}
}

// text decodes a registry value that may arrive as a string, a number, null,
// or an object carrying a "descricao". Blank values decode to nil.
type text struct {
	value *string
}

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.value = nil
		return nil
	}

	var raw string
	switch data[0] {
	case '"':
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	case '{':
		var described struct {
			Descricao *text `json:"descricao"`
		}
		if err := json.Unmarshal(data, &described); err != nil {
			return err
		}
		if described.Descricao == nil {
			t.value = nil
			return nil
		}
		*t = *described.Descricao
		return nil
	case '[':
		t.value = nil
		return nil
	default:
		raw = string(data)
	}

	raw = clip(strings.TrimSpace(raw))
	if raw == "" {
		t.value = nil
		return nil
	}
	t.value = &raw
	return nil
}

// maxTextLength is the width of the supplier columns registry values are stored in.
const maxTextLength = 255

func clip(s string) string {
	if utf8.RuneCountInString(s) <= maxTextLength {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxTextLength]))
}
