package drafting

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the Indian dd/mm/yyyy date format used in drafted documents.
const DateLayout = "02/01/2006"

// Fields are the user-supplied values for a document, keyed by field name.
type Fields map[string]any

// fieldAliases maps alternative field names to their canonical form.
var fieldAliases = map[string]string{
	"information":    "informationPoints",
	"info":           "informationPoints",
	"query":          "informationPoints",
	"departmentAddr": "departmentAddress",
	"deptAddress":    "departmentAddress",
	"phone":          "mobile",
	"phoneNumber":    "mobile",
	"mobileNumber":   "mobile",
	"emailId":        "email",
	"payment":        "paymentMode",
	"paymentMethod":  "paymentMode",
}

var validate = validator.New()

// present reports whether v counts as supplied. Empty strings, zero numbers, false and nil do not.
func present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return true
	}
}

// String renders a field value as document text. Lists become one item per line.
func (f Fields) String(key string) string {
	switch x := f[key].(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, "\n")
	case []string:
		return strings.Join(x, "\n")
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// Normalize copies in, resolves field aliases and fills defaults for optional fields.
func Normalize(in Fields, now time.Time) Fields {
	out := make(Fields, len(in)+4)
	for k, v := range in {
		out[k] = v
	}
	for alias, canonical := range fieldAliases {
		if present(in[alias]) && !present(in[canonical]) {
			out[canonical] = in[alias]
		}
	}

	defaults := map[string]string{
		"departmentAddress": "Relevant Department Address",
		"email":             "N/A",
		"paymentMode":       "Cash/Demand Draft",
		"date":              now.Format(DateLayout),
	}
	if present(out["department"]) {
		defaults["departmentAddress"] = out.String("department") + ", Government of India"
	}
	for field, value := range defaults {
		if !present(out[field]) {
			out[field] = value
		}
	}
	return out
}

// MissingFieldsError lists critical fields that were not supplied.
type MissingFieldsError struct {
	Missing  []string
	Critical []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("Missing critical fields: %s. Please provide at least %s.",
		strings.Join(e.Missing, ", "), humanList(e.Critical))
}

// Validate checks that every critical field of t is present in f.
func Validate(t *Template, f Fields) error {
	if len(t.CriticalFields) == 0 {
		return nil
	}
	data := make(map[string]any, len(t.CriticalFields))
	rules := make(map[string]any, len(t.CriticalFields))
	for _, name := range t.CriticalFields {
		if v := f[name]; present(v) {
			data[name] = v
		} else {
			data[name] = ""
		}
		rules[name] = "required"
	}

	failed := validate.ValidateMap(data, rules)
	if len(failed) == 0 {
		return nil
	}
	missing := make([]string, 0, len(failed))
	for _, name := range t.CriticalFields {
		if _, ok := failed[name]; ok {
			missing = append(missing, name)
		}
	}
	return &MissingFieldsError{Missing: missing, Critical: t.CriticalFields}
}

// humanList turns ["applicantName", "department"] into "applicant name and department".
func humanList(names []string) string {
	words := make([]string, 0, len(names))
	for _, n := range names {
		words = append(words, humanize(n))
	}
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	default:
		return strings.Join(words[:len(words)-1], ", ") + " and " + words[len(words)-1]
	}
}

func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
