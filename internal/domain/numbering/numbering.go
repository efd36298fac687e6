// Package numbering generates human-facing document codes.
//
// A code is prefix + unit code + YYMMDD + a random four digit suffix. Codes are
// not guaranteed unique; callers that need uniqueness must check the store.
package numbering

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

var defaultPrefixes = map[entity.DocType]map[string]string{
	entity.DocReimbursement: {
		entity.CategoryMedical:     "RMED",
		entity.CategoryOperasional: "ROPS",
		entity.CategoryGAUmum:      "RGA",
		entity.CategoryMarketing:   "RMKT",
	},
}

var docTypePrefixes = map[entity.DocType]string{
	entity.DocReimbursement: "RBS",
	entity.DocBonSementara:  "BS",
	entity.DocLPJ:           "LPJ",
}

// DefaultUnitCodes maps organisational units to their short codes
var DefaultUnitCodes = map[string]string{
	"Head Office":            "HO",
	"Business Banking":       "BB",
	"Consumer Banking":       "CB",
	"Information Technology": "IT",
	"Human Capital":          "HC",
	"Finance & Accounting":   "FA",
	"Operasional":            "OPS",
	"Kantor Cabang":          "KC",
	"Kantor Cabang Pembantu": "KCP",
	"Risk Management":        "RM",
	"Kepatuhan":              "KPT",
	"Audit Internal":         "SKAI",
}

// Generator produces display IDs
type Generator struct {
	unitCodes map[string]string
	now       func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Generator
type Option func(*Generator)

// WithUnitCodes replaces the unit code table
func WithUnitCodes(codes map[string]string) Option {
	return func(g *Generator) {
		if len(codes) > 0 {
			g.unitCodes = codes
		}
	}
}

// WithClock sets the time source
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithRand sets the random source for the numeric suffix
func WithRand(rng *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = rng
	}
}

// NewGenerator creates a display ID generator
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		unitCodes: DefaultUnitCodes,
		now:       time.Now,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a display ID for a new submission
func (g *Generator) Generate(docType entity.DocType, category, unit string) string {
	g.mu.Lock()
	suffix := 1000 + g.rng.IntN(9000)
	g.mu.Unlock()

	return fmt.Sprintf("%s%s%s%04d",
		Prefix(docType, category),
		g.UnitCode(unit),
		g.now().Format("060102"),
		suffix,
	)
}

const (
	minUnitCode = 2
	maxUnitCode = 5
)

// Prefix returns the category prefix, falling back to the document type prefix
func Prefix(docType entity.DocType, category string) string {
	if byCategory, ok := defaultPrefixes[docType]; ok {
		if p, ok := byCategory[category]; ok {
			return p
		}
	}
	if p, ok := docTypePrefixes[docType]; ok {
		return p
	}
	return "DOC"
}

// UnitCode maps a unit name to its 2-5 letter code.
// Unknown units use the initials of their words, padded from the first word.
func (g *Generator) UnitCode(unit string) string {
	if code, ok := g.unitCodes[unit]; ok {
		return code
	}
	// config loaders may lowercase map keys
	for name, code := range g.unitCodes {
		if strings.EqualFold(name, unit) {
			return code
		}
	}

	words := strings.FieldsFunc(unit, func(r rune) bool {
		return !isCodeLetter(unicode.ToUpper(r))
	})
	if len(words) == 0 {
		return "XX"
	}

	code := make([]rune, 0, maxUnitCode)
	for _, w := range words {
		code = append(code, unicode.ToUpper([]rune(w)[0]))
		if len(code) == maxUnitCode {
			break
		}
	}
	if len(code) < minUnitCode {
		first := []rune(strings.ToUpper(words[0]))
		if len(first) >= minUnitCode {
			code = first[:min(len(first), 3)]
		} else {
			code = append(code, 'X')
		}
	}
	return string(code)
}

// IsUnitCode reports whether code is 2-5 letters A-Z
func IsUnitCode(code string) bool {
	if len(code) < minUnitCode || len(code) > maxUnitCode {
		return false
	}
	for _, r := range code {
		if !isCodeLetter(r) {
			return false
		}
	}
	return true
}

func isCodeLetter(r rune) bool {
	return r >= 'A' && r <= 'Z'
}
