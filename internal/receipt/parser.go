// Package receipt holds the pure text heuristics of the pipeline: fragment
// assembly, amount extraction and direction classification.
package receipt

import (
	"errors"
	"regexp"
	"strings"

	"recibo/internal/core"
	"recibo/internal/ocr"
)

// amountPattern matches a currency-prefixed number ("r$ 1.234,56",
// "rs 50,00"). The capture group keeps separators; normalization happens
// in ParseAmount.
var amountPattern = regexp.MustCompile(`(?:r\$|rs)\s*(\d[\d.,]*)`)

// incomeKeywords is the enumerated set of substrings that mark an entry as
// income. Matching is done on the lower-cased assembled text.
var incomeKeywords = []string{
	"pix recebido",
	"salário",
	"depósito",
	"crédito",
	"recebimento",
}

// ErrNoAmount means no monetary amount could be found in the receipt text.
var ErrNoAmount = errors.New("no monetary amount found in receipt text")

// AssembleText joins fragment texts with single spaces in the engine's
// emission order and lower-cases the result. An empty fragment list yields
// the empty string.
func AssembleText(fragments []ocr.Fragment) string {
	if len(fragments) == 0 {
		return ""
	}
	parts := make([]string, len(fragments))
	for i, f := range fragments {
		parts[i] = f.Text
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// ParseAmount extracts the first currency-prefixed amount from the
// assembled text. Only the first match counts; later monetary-looking
// substrings are ignored.
func ParseAmount(text string) (core.Money, error) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return core.Money{}, ErrNoAmount
	}
	cents, err := core.ParseBRLToCents(strings.Trim(m[1], ".,"))
	if err != nil {
		return core.Money{}, ErrNoAmount
	}
	return core.Money{Cents: cents}, nil
}

// ClassifyDirection returns Income when any income keyword appears in the
// text and Expense otherwise. It never fails.
func ClassifyDirection(text string) core.Direction {
	text = strings.ToLower(text)
	for _, kw := range incomeKeywords {
		if strings.Contains(text, kw) {
			return core.Income
		}
	}
	return core.Expense
}
