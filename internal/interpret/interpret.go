// Package interpret turns the raw text a language model produced into a
// validated payment record. Models wrap answers in reasoning blocks,
// markdown fences, doubled braces and stray escapes, so interpretation is a
// sequence of tolerant cleaning passes followed by strict validation.
package interpret

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Every failure wraps ErrInterpretation, so callers can match the family or
// the specific kind.
var (
	ErrInterpretation = errors.New("response interpretation failed")

	ErrModelDeclined     = fmt.Errorf("%w: model declined extraction", ErrInterpretation)
	ErrMalformedResponse = fmt.Errorf("%w: malformed response", ErrInterpretation)
	ErrIncomplete        = fmt.Errorf("%w: incomplete extraction", ErrInterpretation)
	ErrInvalidDate       = fmt.Errorf("%w: invalid date", ErrInterpretation)
	ErrInvalidAmount     = fmt.Errorf("%w: invalid amount", ErrInterpretation)
)

// PaymentRecord only exists after full validation; there is no partially
// valid state.
type PaymentRecord struct {
	Date   string // YYYY-MM-DD, a real calendar date
	Amount string // fixed two decimal places
}

var (
	reThink = regexp.MustCompile(`(?is)<think>.*?</think>`)
	reFence = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")
	reDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// The model must answer with both keys present and non-null. Type and
// format problems are diagnosed separately for better failure reasons.
const paymentSchemaJSON = `{
	"type": "object",
	"required": ["data_pagamento", "valor_pagamento"],
	"properties": {
		"data_pagamento": {"not": {"type": "null"}},
		"valor_pagamento": {"not": {"type": "null"}}
	}
}`

var paymentSchema = jsonschema.MustCompileString("payment.json", paymentSchemaJSON)

// Interpret cleans and validates a raw model response. Cleaning steps run
// in a fixed order and each tolerates absence of its artifact.
func Interpret(raw string, logger *slog.Logger) (PaymentRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// reasoning blocks first, they may contain anything
	cleaned := strings.TrimSpace(reThink.ReplaceAllString(raw, ""))

	// prompt-echo artifacts
	cleaned = strings.ReplaceAll(cleaned, "{{", "{")
	cleaned = strings.ReplaceAll(cleaned, "}}", "}")
	cleaned = strings.ReplaceAll(cleaned, `\"`, `"`)
	cleaned = strings.ReplaceAll(cleaned, `\_`, "_")

	if m := reFence.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
		logger.Debug("json block extracted from fence")
	} else {
		cleaned = strings.TrimSpace(cleaned)
	}

	if strings.EqualFold(strings.TrimSpace(cleaned), "erro") {
		return PaymentRecord{}, ErrModelDeclined
	}

	fields, err := decodeObject(cleaned)
	if err != nil {
		return PaymentRecord{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	if err := paymentSchema.Validate(fields); err != nil {
		return PaymentRecord{}, fmt.Errorf("%w: %v", ErrIncomplete, err)
	}

	date, err := validateDate(fields["data_pagamento"])
	if err != nil {
		return PaymentRecord{}, err
	}
	amount, err := validateAmount(fields["valor_pagamento"])
	if err != nil {
		return PaymentRecord{}, err
	}

	return PaymentRecord{Date: date, Amount: amount}, nil
}

// decodeObject parses cleaned text as a JSON object, keeping number
// precision by deferring conversion.
func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func validateDate(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: date is not a string", ErrInvalidDate)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: date is blank", ErrIncomplete)
	}
	if !reDate.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return "", fmt.Errorf("%w: %q is not a calendar date", ErrInvalidDate, s)
	}
	return s, nil
}

// validateAmount coerces the amount to a number and formats it with exactly
// two fractional digits (round half to even).
func validateAmount(v any) (string, error) {
	var f float64
	var err error
	switch t := v.(type) {
	case json.Number:
		f, err = strconv.ParseFloat(t.String(), 64)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidAmount, v)
	}
	return strconv.FormatFloat(f, 'f', 2, 64), nil
}
