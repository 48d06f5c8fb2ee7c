// Package extract parses one transcribed Portuguese sentence into the
// structured fields of a bill. It is a deterministic single-pass heuristic,
// not a language model: one numeric token, one keyword scan, one prefix cut.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mvmaia/contas/internal/models"
)

// Category is one of the fixed spending buckets the extractor recognizes.
type Category string

const (
	CategoryCartao      Category = "CARTAO"
	CategoryAluguel     Category = "ALUGUEL"
	CategoryComida      Category = "COMIDA"
	CategoryMercado     Category = "MERCADO"
	CategoryRoles       Category = "ROLES"
	CategoryOutros      Category = "OUTROS"
	CategoryCombustivel Category = "COMBUSTIVEL"
	CategoryContas      Category = "CONTAS"
)

// categories is the closed keyword set scanned against the sentence.
var categories = []Category{
	CategoryCartao,
	CategoryAluguel,
	CategoryComida,
	CategoryMercado,
	CategoryRoles,
	CategoryOutros,
	CategoryCombustivel,
	CategoryContas,
}

// UnknownDescription is the sentinel used when no leading description
// remains once the amount and category are cut off.
const UnknownDescription = "Unknown"

// amountPattern matches the first numeric token, optionally followed by a
// currency marker. Comma is the Brazilian decimal separator ("12,50").
var amountPattern = regexp.MustCompile(`(?i)(\d+[,.]?\d*)\s*(reais|rs|r\$)?`)

// Result holds the fields extracted from one sentence.
type Result struct {
	// Sentence is the input as received.
	Sentence string
	// Amount is the parsed decimal amount, nil when no numeric token was
	// found.
	Amount *decimal.Decimal
	// Description is the sentence's leading text before the amount and
	// category keyword, or UnknownDescription when empty.
	Description string
	// Date is the processing date. The extractor does not parse dates
	// out of the sentence.
	Date models.Date
	// Category is the matched keyword, CategoryOutros when none matched.
	Category Category
}

// Extractor turns sentences into bill fields. The clock is injectable so
// the default transaction date is testable.
type Extractor struct {
	now func() time.Time
}

// New creates an extractor using the wall clock.
func New() *Extractor {
	return &Extractor{now: time.Now}
}

// NewWithClock creates an extractor with a fixed clock, for tests.
func NewWithClock(now func() time.Time) *Extractor {
	return &Extractor{now: now}
}

// Extract parses one sentence. Order matters: the amount scan fixes
// valueIndex, the keyword scan fixes categoryIndex, and the description is
// the prefix before whichever comes first.
func (e *Extractor) Extract(sentence string) Result {
	result := Result{
		Sentence:    sentence,
		Description: UnknownDescription,
		Date:        models.DateOf(e.now()),
		Category:    CategoryOutros,
	}

	valueIndex := len(sentence)
	if loc := amountPattern.FindStringSubmatchIndex(sentence); loc != nil {
		valueIndex = loc[0]
		numeric := strings.ReplaceAll(sentence[loc[2]:loc[3]], ",", ".")
		if amount, err := decimal.NewFromString(numeric); err == nil {
			result.Amount = &amount
		}
	}

	// First keyword by earliest position of occurrence, not list order.
	categoryIndex := len(sentence)
	lower := strings.ToLower(sentence)
	for _, category := range categories {
		idx := strings.Index(lower, strings.ToLower(string(category)))
		if idx >= 0 && idx < categoryIndex {
			categoryIndex = idx
			result.Category = category
		}
	}

	cut := valueIndex
	if categoryIndex < cut {
		cut = categoryIndex
	}
	if description := strings.TrimSpace(sentence[:cut]); description != "" {
		result.Description = description
	}

	return result
}
