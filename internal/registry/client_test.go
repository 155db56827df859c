package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Additional-Code/fornecedor/internal/config"
	"github.com/Additional-Code/fornecedor/internal/entity"
)

const petrobras = `{
	"cnpj": "33000167000101",
	"razao_social": "PETROLEO BRASILEIRO S A PETROBRAS",
	"nome_fantasia": "PETROBRAS",
	"email": null,
	"ddd_telefone_1": "2132242164",
	"cep": 20231030,
	"logradouro": "AVENIDA REPUBLICA DO CHILE",
	"numero": "65",
	"complemento": "",
	"bairro": "CENTRO",
	"municipio": "RIO DE JANEIRO",
	"uf": "RJ",
	"situacao_cadastral": 2,
	"data_inicio_atividade": "1966-09-28",
	"porte": {"codigo": "05", "descricao": "DEMAIS"},
	"natureza_juridica": "Sociedade de Economia Mista"
}`

func testConfig(baseURL string) config.Registry {
	return config.Registry{
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		VerifyTLS: true,
		UserAgent: "fornecedor-test/1.0",
	}
}

func TestLookupProjectsCompany(t *testing.T) {
	var gotPath, gotAgent, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(petrobras))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), zaptest.NewLogger(t))
	res := client.Lookup(context.Background(), "33.000.167/0001-01")

	require.True(t, res.Found())
	require.NoError(t, res.Cause)
	assert.Equal(t, "/cnpj/v1/33000167000101", gotPath)
	assert.Equal(t, "fornecedor-test/1.0", gotAgent)
	assert.Equal(t, "application/json", gotAccept)

	f := res.Company.Fields
	require.NotNil(t, f.DocumentType)
	assert.Equal(t, entity.DocumentCNPJ, *f.DocumentType)
	assert.Equal(t, "33000167000101", *f.Document)
	assert.Equal(t, "PETROLEO BRASILEIRO S A PETROBRAS", *f.LegalName)
	assert.Equal(t, "PETROBRAS", *f.TradeName)
	assert.Nil(t, f.Email)
	assert.Equal(t, "2132242164", *f.Phone)
	assert.Equal(t, "20231030", *f.PostalCode)
	assert.Equal(t, "AVENIDA REPUBLICA DO CHILE", *f.Street)
	assert.Equal(t, "65", *f.Number)
	assert.Nil(t, f.Complement)
	assert.Equal(t, "CENTRO", *f.District)
	assert.Equal(t, "RIO DE JANEIRO", *f.City)
	assert.Equal(t, "RJ", *f.State)

	assert.Equal(t, "2", *res.Company.Status)
	assert.Equal(t, "1966-09-28", *res.Company.FoundedOn)
	assert.Equal(t, "DEMAIS", *res.Company.CompanySize)
	assert.Equal(t, "Sociedade de Economia Mista", *res.Company.LegalNature)
}

func TestLookupMissingFieldsAreNil(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"razao_social": "ACME LTDA"}`))
	}))
	defer srv.Close()

	res := NewClient(testConfig(srv.URL), zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")

	require.True(t, res.Found())
	f := res.Company.Fields
	assert.Equal(t, "ACME LTDA", *f.LegalName)
	assert.Nil(t, f.Document)
	assert.Nil(t, f.TradeName)
	assert.Nil(t, f.City)
	assert.Nil(t, f.State)
	assert.Nil(t, res.Company.CompanySize)
	assert.Nil(t, res.Company.LegalNature)
}

func TestLookupFailuresAreAbsent(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		cause   error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, `{"message":"CNPJ 12345678000195 não encontrado."}`, http.StatusNotFound)
			},
			cause: ErrNotFound,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			cause: ErrUnavailable,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			cause: ErrUnavailable,
		},
		{
			name: "malformed json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"razao_social":`))
			},
			cause: ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			res := NewClient(testConfig(srv.URL), zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")

			assert.False(t, res.Found())
			assert.Nil(t, res.Company)
			assert.True(t, errors.Is(res.Cause, tt.cause), "cause %v", res.Cause)
		})
	}
}

func TestLookupTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	res := NewClient(testConfig(baseURL), zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")

	assert.False(t, res.Found())
	assert.ErrorIs(t, res.Cause, ErrUnavailable)
}

func TestLookupTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := testConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond

	res := NewClient(cfg, zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")

	assert.False(t, res.Found())
	assert.ErrorIs(t, res.Cause, ErrUnavailable)
}

func TestLookupLogsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	NewClient(testConfig(srv.URL), zap.New(core)).Lookup(context.Background(), "12.345.678/0001-95")

	entries := logs.FilterMessage("registry returned non-success status").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "12345678000195", fields["document"])
	assert.EqualValues(t, http.StatusBadGateway, fields["status"])
	assert.Equal(t, "upstream down", fields["body"])
}

func TestLookupFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/cnpj/v1/12345678000195", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/v2/12345678000195", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/v2/12345678000195", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cnpj":"12345678000195","razao_social":"MOVED LTDA"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	res := NewClient(testConfig(srv.URL), zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")

	require.True(t, res.Found())
	assert.Equal(t, "MOVED LTDA", *res.Company.Fields.LegalName)
}

func TestLookupTLSVerification(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"razao_social":"SELF SIGNED LTDA"}`))
	}))
	defer srv.Close()

	verified := NewClient(testConfig(srv.URL), zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")
	assert.False(t, verified.Found())
	assert.ErrorIs(t, verified.Cause, ErrUnavailable)
	assert.Zero(t, hits.Load())

	cfg := testConfig(srv.URL)
	cfg.VerifyTLS = false
	unverified := NewClient(cfg, zaptest.NewLogger(t)).Lookup(context.Background(), "12345678000195")
	require.True(t, unverified.Found())
	assert.Equal(t, "SELF SIGNED LTDA", *unverified.Company.Fields.LegalName)
}

func TestTextDecodesRegistryShapes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want *string
	}{
		{name: "string", in: `"ATIVA"`, want: strp("ATIVA")},
		{name: "number", in: `2`, want: strp("2")},
		{name: "described", in: `{"codigo":"05","descricao":"DEMAIS"}`, want: strp("DEMAIS")},
		{name: "described without text", in: `{"codigo":"05"}`},
		{name: "null", in: `null`},
		{name: "blank", in: `"  "`},
		{name: "longer than a column", in: `"` + strings.Repeat("Á", 300) + `"`, want: strp(strings.Repeat("Á", 255))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var v text
			require.NoError(t, v.UnmarshalJSON([]byte(tt.in)))
			assert.Equal(t, tt.want, v.value)
		})
	}
}

func strp(s string) *string { return &s }
