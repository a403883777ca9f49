package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/gwaln/internal/model"
)

// NumericTolerance is the relative difference under which two values agree
const NumericTolerance = 0.01

var numberPattern = regexp.MustCompile(`(-?\d[\d,]*(?:\.\d+)?)(?:\s*(%|[A-Za-z°]+))?`)

// unitAliases maps recognised unit spellings to their canonical form.
// Words that are not units leave the value unitless.
var unitAliases = map[string]string{
	"%":          "%",
	"percent":    "%",
	"thousand":   "thousand",
	"million":    "million",
	"billion":    "billion",
	"trillion":   "trillion",
	"km":         "km",
	"kilometres": "km",
	"kilometers": "km",
	"m":          "m",
	"metres":     "m",
	"meters":     "m",
	"mi":         "mi",
	"miles":      "mi",
	"kg":         "kg",
	"kilograms":  "kg",
	"t":          "t",
	"tonnes":     "t",
	"tons":       "t",
	"year":       "years",
	"years":      "years",
	"day":        "days",
	"days":       "days",
	"people":     "people",
	"°c":         "°c",
	"°f":         "°f",
}

// ExtractNumbers finds numeric values in text along with an optional unit.
// A hyphen between two numbers ("1939-1945") is a range, not a minus sign.
func ExtractNumbers(text string) []model.NumericValue {
	var values []model.NumericValue

	for _, m := range numberPattern.FindAllStringSubmatchIndex(text, -1) {
		start := m[2]
		if text[start] == '-' && !signAllowed(text, start) {
			start++
		}

		digits := strings.TrimRight(text[start:m[3]], ",")
		value, err := strconv.ParseFloat(strings.ReplaceAll(digits, ",", ""), 64)
		if err != nil {
			continue
		}

		raw := digits
		unit := ""
		if m[4] >= 0 {
			unit = unitAliases[strings.ToLower(text[m[4]:m[5]])]
		}
		if unit != "" {
			raw = strings.TrimSpace(strings.TrimSuffix(text[start:m[1]], ","))
		}

		values = append(values, model.NumericValue{Raw: raw, Value: value, Unit: unit})
	}

	return values
}

// signAllowed reports whether the '-' at pos starts a negative number: it must
// open the text or follow whitespace or an opening bracket
func signAllowed(text string, pos int) bool {
	if pos == 0 {
		return true
	}
	prev, _ := utf8.DecodeLastRuneInString(text[:pos])
	return unicode.IsSpace(prev) || prev == '(' || prev == '['
}

// NumbersAgree reports whether two values carry the same unit and agree.
// Unitless whole numbers (years, counts) must match exactly; everything else
// may differ by NumericTolerance relative to the larger magnitude.
func NumbersAgree(a, b model.NumericValue) bool {
	if a.Unit != b.Unit {
		return false
	}
	if a.Unit == "" && isWhole(a) && isWhole(b) {
		return a.Value == b.Value
	}
	scale := math.Max(math.Abs(a.Value), math.Abs(b.Value))
	return math.Abs(a.Value-b.Value) <= NumericTolerance*scale
}

func isWhole(v model.NumericValue) bool {
	return !strings.Contains(v.Raw, ".") && v.Value == math.Trunc(v.Value)
}

// NumbersMismatch reports whether two value lists disagree: both sides must
// carry numbers and at least one value on either side has no counterpart
func NumbersMismatch(wiki, grok []model.NumericValue) bool {
	if len(wiki) == 0 || len(grok) == 0 {
		return false
	}
	return hasOrphan(wiki, grok) || hasOrphan(grok, wiki)
}

// ContainsNumber reports whether any value in pool agrees with v
func ContainsNumber(pool []model.NumericValue, v model.NumericValue) bool {
	for _, p := range pool {
		if NumbersAgree(p, v) {
			return true
		}
	}
	return false
}

func hasOrphan(values, pool []model.NumericValue) bool {
	for _, v := range values {
		if !ContainsNumber(pool, v) {
			return true
		}
	}
	return false
}
