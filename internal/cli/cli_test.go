package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OBS_LOG_LEVEL", "error")
	t.Setenv("OBS_ENABLE_TRACING", "false")
	t.Setenv("OBS_ENABLE_METRICS", "false")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRegistryLookupDefaultsToProbeCNPJ(t *testing.T) {
	quietEnv(t)
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(`{"cnpj":"00000000000191","razao_social":"BANCO DO BRASIL SA","municipio":"BRASILIA","uf":"DF","situacao_cadastral":"ATIVA"}`))
	}))
	defer srv.Close()
	t.Setenv("BRASILAPI_BASE_URL", srv.URL)

	out, err := run(t, "registry", "lookup")
	require.NoError(t, err, out)

	assert.Equal(t, "/cnpj/v1/00000000000191", path)
	assert.Contains(t, out, "lookup succeeded")
	assert.Contains(t, out, "BANCO DO BRASIL SA")
	assert.Contains(t, out, "BRASILIA")
	assert.Contains(t, out, "ATIVA")
	assert.Contains(t, out, "trade name:  -")
}

func TestRegistryLookupFailure(t *testing.T) {
	quietEnv(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	t.Setenv("BRASILAPI_BASE_URL", srv.URL)

	out, err := run(t, "registry", "lookup", "12.345.678/0001-95")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "12345678000195")
	assert.Contains(t, out, "looking up CNPJ 12345678000195")
}

func TestMigrateSeedAndList(t *testing.T) {
	quietEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_WRITER_DSN", filepath.Join(t.TempDir(), "fornecedor.db"))

	out, err := run(t, "migrate", "up")
	require.NoError(t, err, out)
	assert.Contains(t, out, "migrations applied")

	out, err = run(t, "migrate", "status")
	require.NoError(t, err, out)
	assert.Contains(t, out, "schema version 1")

	out, err = run(t, "seed", "--count", "3")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(5 suppliers inserted)")

	out, err = run(t, "seed")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(0 suppliers inserted)")

	out, err = run(t, "suppliers", "list", "--state", "RJ")
	require.NoError(t, err, out)
	assert.Contains(t, out, "PETROLEO BRASILEIRO S A PETROBRAS")
	assert.Contains(t, out, "1 supplier(s)")

	out, err = run(t, "suppliers", "list", "--city", "Paulo")
	require.NoError(t, err, out)
	assert.Contains(t, out, "12345678901")

	out, err = run(t, "suppliers", "list", "--type", "cnpj", "--state", "RJ")
	assert.Error(t, err, out)

	out, err = run(t, "migrate", "down", "--all")
	require.NoError(t, err, out)
	assert.Contains(t, out, "migrations rolled back")
}
