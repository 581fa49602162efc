package classify

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alisio/boleto-extract/constants"
	"github.com/alisio/boleto-extract/internal/catalog"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassify(t *testing.T) {
	cat := &catalog.Catalog{Entries: []catalog.Entry{
		{Label: "semcodigos", Codes: nil},
		{Label: "energia", Codes: []string{"4034", "eletropaulo"}},
		{Label: "agua", Codes: []string{"4034"}},
		{Label: "internet", Codes: []string{"fibra"}},
	}}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			"all codes present",
			"Pagamento ELETROPAULO codigo 4034 vencimento 2023-01-05",
			"energia",
		},
		{
			"first match wins when several entries match",
			"fatura 4034 eletropaulo fibra",
			"energia",
		},
		{
			"partial code set does not match",
			"conta eletropaulo sem o numero",
			constants.Unidentified,
		},
		{
			"later entry matches when earlier needs more codes",
			"somente o codigo 4034 aqui",
			"agua",
		},
		{
			"case insensitive",
			"SERVICO DE FIBRA OPTICA",
			"internet",
		},
		{
			"no match",
			"recibo generico de pagamento",
			constants.Unidentified,
		},
		{
			"empty text",
			"",
			constants.Unidentified,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text, cat, testLogger()))
		})
	}
}

func TestClassifyEmptyCodesNeverMatch(t *testing.T) {
	cat := &catalog.Catalog{Entries: []catalog.Entry{
		{Label: "vazio", Codes: []string{}},
	}}
	assert.Equal(t, constants.Unidentified, Classify("qualquer texto", cat, testLogger()))
}
