package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCodes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"json array", `["4034", " Energia ", ""]`, []string{"4034", "energia"}},
		{"literal list", `['4034', ' Energia ', '']`, []string{"4034", "energia"}},
		{"tuple", `('x', 'y')`, []string{"x", "y"}},
		{"json scalar string", `"Energia"`, []string{"energia"}},
		{"quoted scalar", `'Energia'`, []string{"energia"}},
		{"bare number", `4034`, []string{"4034"}},
		{"number array", `[10799.10, 41]`, []string{"10799.1", "41"}},
		{"bool literals", `[True, False]`, []string{"true", "false"}},
		{"escaped quote", `['it\'s']`, []string{"it's"}},
		{"trailing comma", `['a', 'b',]`, []string{"a", "b"}},
		{"bare word is malformed", `energia`, []string{}},
		{"unterminated quote", `['a`, []string{}},
		{"mixed quote styles", `["a", 'b']`, []string{"a", "b"}},
		{"empty", ``, []string{}},
		{"whitespace", `   `, []string{}},
		{"empty list", `[]`, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCodes(tt.raw, testLogger()))
		})
	}
}

// The same code set must normalize identically no matter which syntax the
// CSV used.
func TestNormalizeCodesCanonical(t *testing.T) {
	representations := []string{
		`["4034", "Energia"]`,
		`['4034', 'Energia']`,
		`[ '4034' ,"Energia" ]`,
	}
	want := []string{"4034", "energia"}
	for _, raw := range representations {
		assert.Equal(t, want, NormalizeCodes(raw, testLogger()), "raw=%s", raw)
	}
}
