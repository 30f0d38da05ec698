package drafting

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig/v3"
)

var placeholderPattern = regexp.MustCompile(`\[([^\[\]\n]+)\]`)

// labelAliases maps the camel-cased form of a placeholder label to the field that fills it.
var labelAliases = map[string]string{
	"departmentName":                  "department",
	"mobileNumber":                    "mobile",
	"districtStateNational":           "commissionLevel",
	"action":                          "requestedAction",
	"relief1":                         "relief",
	"dateAndTime":                     "incidentDate",
	"time":                            "incidentTime",
	"location":                        "incidentLocation",
	"natureOfOffense":                 "complaintNature",
	"policeStationName":               "policeStation",
	"descriptionOfLossOrDamage":       "lossDescription",
	"detailedNarrativeOfIncident":     "detailedNarrative",
	"fatherHusbandName":               "guardianName",
	"fullAddress":                     "address",
	"idTypeAndNumber":                 "idProof",
	"listOfEvidenceDocumentsAttached": "evidence",
	"witnessNameAddressContact":       "witnesses",
	"accusedName":                     "accusedDetails",
	"advocateEnrollmentNo":            "advocateEnrollment",
	"contactDetails":                  "advocateContact",
	"subjectOfNotice":                 "subject",
	"fact1":                           "facts",
	"legalGround1":                    "legalGrounds",
	"demand1":                         "demands",
	"statementOfFact1":                "statements",
	"clauseAboutUtilityCharges":       "utilityCharges",
	"maintenanceClause":               "maintenance",
	"additionalTermsAndConditions":    "additionalTerms",
}

// FieldFor returns the field name that fills the placeholder label in t.
func (t *Template) FieldFor(label string) string {
	if field, ok := t.Placeholders[label]; ok {
		return field
	}
	key := camelCase(label)
	if field, ok := labelAliases[key]; ok {
		return field
	}
	return key
}

// Fill produces a draft without a language model by substituting fields into the template
// structure. Placeholders with no matching field are left in brackets for the user to complete.
func Fill(t *Template, f Fields) (string, error) {
	src := fillSource(t)
	funcs := sprig.TxtFuncMap()
	funcs["field"] = func(key string) string {
		if !present(f[key]) {
			return ""
		}
		return f.String(key)
	}

	tmpl, err := template.New(t.Code).Funcs(funcs).Parse(src)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s template: %w", t.Code, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, nil); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", t.Code, err)
	}
	return b.String(), nil
}

// fillSource rewrites each [Label] in the structure as a field lookup that defaults to the label.
func fillSource(t *Template) string {
	var b strings.Builder
	last := 0
	for _, m := range placeholderPattern.FindAllStringSubmatchIndex(t.Structure, -1) {
		b.WriteString(escapeActions(t.Structure[last:m[0]]))
		label := t.Structure[m[2]:m[3]]
		fmt.Fprintf(&b, `{{ field %s | default %s }}`,
			strconv.Quote(t.FieldFor(label)), strconv.Quote("["+label+"]"))
		last = m[1]
	}
	b.WriteString(escapeActions(t.Structure[last:]))
	return b.String()
}

func escapeActions(s string) string {
	return strings.ReplaceAll(s, "{{", `{{"{{"}}`)
}

// camelCase turns a label such as "Police Station Name" into "policeStationName".
func camelCase(label string) string {
	words := strings.FieldsFunc(label, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for i, w := range words {
		w = strings.ToLower(w)
		if i == 0 {
			b.WriteString(w)
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}
