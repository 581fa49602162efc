package catalog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "contas.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	content := "\uFEFFNome_Pagamento, CODIGOS \n" +
		"acme,\"['4034', 'Energia']\"\n" +
		"\n" +
		"condominio,'1c0a'\n" +
		",'orphan'\n" +
		"semcodigo,\n" +
		"agua,['700a', 'saneamento']\n"

	cat, err := Load(writeCatalog(t, content), testLogger())
	require.NoError(t, err)
	require.Len(t, cat.Entries, 3)

	assert.Equal(t, "acme", cat.Entries[0].Label)
	assert.Equal(t, []string{"4034", "energia"}, cat.Entries[0].Codes)

	assert.Equal(t, "condominio", cat.Entries[1].Label)
	assert.Equal(t, []string{"1c0a"}, cat.Entries[1].Codes)

	// unquoted codes list was split across CSV columns and rejoined
	assert.Equal(t, "agua", cat.Entries[2].Label)
	assert.Equal(t, []string{"700a", "saneamento"}, cat.Entries[2].Codes)
}

func TestLoadKeepsUnparseableCodesRow(t *testing.T) {
	cat, err := Load(writeCatalog(t, "nome_pagamento,codigos\nmisc,energia eletrica\n"), testLogger())
	require.NoError(t, err)
	require.Len(t, cat.Entries, 1)
	assert.Equal(t, "misc", cat.Entries[0].Label)
	assert.Empty(t, cat.Entries[0].Codes)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty file", ""},
		{"missing codes column", "nome_pagamento,outra\nacme,'x'\n"},
		{"missing label column", "pagamento,codigos\nacme,'x'\n"},
		{"no valid rows", "nome_pagamento,codigos\n,\n ,  \n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeCatalog(t, tt.content), testLogger())
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), testLogger())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFormat)
}
