// Package validate implements the field validation used by the calculation
// handlers. Validators never return Go errors: failure is reported as a
// Result with Valid=false and a Portuguese message suitable for direct
// display, so invalid user input can never interrupt request handling.
package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/andrelmp/precifica/internal/numfmt"
)

const maxSanitizedLength = 1000

// Result is the outcome of validating a string field.
type Result struct {
	Valid     bool   `json:"isValid"`
	Error     string `json:"error,omitempty"`
	Sanitized string `json:"sanitizedValue,omitempty"`
}

// NumericResult is the outcome of validating a numeric field. Value is only
// meaningful when Valid is true.
type NumericResult struct {
	Valid bool    `json:"isValid"`
	Error string  `json:"error,omitempty"`
	Value float64 `json:"sanitizedValue"`
}

// Rules describes the checks Field applies, in order: required-ness,
// sanitization, length bounds, pattern, numeric bounds, custom.
type Rules struct {
	Required  bool
	MinLength int
	MaxLength int
	Pattern   *regexp.Regexp
	Min       *float64
	Max       *float64
	// Custom runs last over the sanitized value; its Result, including its
	// own Sanitized, takes precedence over everything before it.
	Custom func(sanitized string) Result
}

func invalid(msg string) Result {
	return Result{Valid: false, Error: msg}
}

func valid(sanitized string) Result {
	return Result{Valid: true, Sanitized: sanitized}
}

var (
	jsProtocolRe   = regexp.MustCompile(`(?i)javascript:`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon\w+\s*=`)
	angleBracketRe = regexp.MustCompile(`[<>]`)
)

// sanitize trims the value and strips markup fragments that have no business
// in any of our fields.
func sanitize(value string) string {
	s := strings.TrimSpace(value)
	s = angleBracketRe.ReplaceAllString(s, "")
	s = jsProtocolRe.ReplaceAllString(s, "")
	s = eventHandlerRe.ReplaceAllString(s, "")
	if len(s) > maxSanitizedLength {
		s = s[:maxSanitizedLength]
	}
	return s
}

// Field validates value against rules. An empty or whitespace-only value
// fails only when rules.Required is set; when optional it short-circuits to
// valid with an empty sanitized value.
func Field(value string, rules Rules) Result {
	if strings.TrimSpace(value) == "" {
		if rules.Required {
			return invalid("Campo obrigatório")
		}
		return valid("")
	}

	s := sanitize(value)
	if s == "" && rules.Required {
		return invalid("Campo obrigatório")
	}

	if rules.MinLength > 0 && len(s) < rules.MinLength {
		return invalid("Deve ter pelo menos " + strconv.Itoa(rules.MinLength) + " caracteres")
	}
	if rules.MaxLength > 0 && len(s) > rules.MaxLength {
		return invalid("Deve ter no máximo " + strconv.Itoa(rules.MaxLength) + " caracteres")
	}
	if rules.Pattern != nil && !rules.Pattern.MatchString(s) {
		return invalid("Formato inválido")
	}

	if rules.Min != nil || rules.Max != nil {
		n, ok := numfmt.SanitizeNumber(s)
		if !ok {
			return invalid("Deve ser um número")
		}
		if rules.Min != nil && n < *rules.Min {
			return invalid("Valor mínimo é " + trimFloat(*rules.Min))
		}
		if rules.Max != nil && n > *rules.Max {
			return invalid("Valor máximo é " + trimFloat(*rules.Max))
		}
	}

	if rules.Custom != nil {
		return rules.Custom(s)
	}

	return valid(s)
}

// FieldsResult aggregates per-field validation. Errors only contains failing
// fields and Sanitized only contains passing ones; merging Sanitized back
// into form state intentionally drops the invalid fields, whose messages are
// surfaced through Errors instead.
type FieldsResult struct {
	Valid     bool              `json:"isValid"`
	Errors    map[string]string `json:"errors"`
	Sanitized map[string]string `json:"sanitizedData"`
}

// Fields applies Field per key of rules against the matching entry of data.
func Fields(data map[string]string, rules map[string]Rules) FieldsResult {
	out := FieldsResult{
		Valid:     true,
		Errors:    map[string]string{},
		Sanitized: map[string]string{},
	}

	for name, r := range rules {
		res := Field(data[name], r)
		if res.Valid {
			out.Sanitized[name] = res.Sanitized
		} else {
			out.Valid = false
			out.Errors[name] = res.Error
		}
	}

	return out
}

// trimFloat renders a bound for an error message without trailing decimals.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
