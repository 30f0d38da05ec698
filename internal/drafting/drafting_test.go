package drafting

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, time.March, 7, 10, 0, 0, 0, time.UTC)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog()
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return c
}

func TestCatalog_Embedded(t *testing.T) {
	c := mustCatalog(t)
	want := []string{"RTI_APPLICATION", "CONSUMER_COMPLAINT", "FIR_COMPLAINT", "LEGAL_NOTICE", "AFFIDAVIT", "RENTAL_AGREEMENT"}
	if got := strings.Join(c.Codes(), ","); got != strings.Join(want, ",") {
		t.Errorf("Codes() = %s, want %s", got, strings.Join(want, ","))
	}
	for _, info := range c.Types() {
		if info.Name == "" || len(info.RequiredFields) == 0 {
			t.Errorf("type %s is incomplete: %+v", info.Type, info)
		}
		tmpl, _ := c.Get(info.Type)
		if len(tmpl.CriticalFields) == 0 {
			t.Errorf("type %s has no critical fields", info.Type)
		}
		if !strings.Contains(tmpl.Structure, "[") {
			t.Errorf("type %s structure has no placeholders", info.Type)
		}
	}
}

func TestCatalog_Lookup(t *testing.T) {
	c := mustCatalog(t)
	tests := []struct {
		name     string
		input    string
		wantCode string
		wantErr  bool
	}{
		{name: "code", input: "RTI_APPLICATION", wantCode: "RTI_APPLICATION"},
		{name: "friendly name", input: "RTI Application", wantCode: "RTI_APPLICATION"},
		{name: "name ignores case", input: "affidavit", wantCode: "AFFIDAVIT"},
		{name: "unknown", input: "DIVORCE_PETITION", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Lookup(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownType) {
					t.Errorf("Lookup(%q) error = %v, want ErrUnknownType", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Lookup(%q) error = %v", tt.input, err)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Lookup(%q) = %s, want %s", tt.input, got.Code, tt.wantCode)
			}
		})
	}
}

func TestCatalog_InfoIsExactCode(t *testing.T) {
	c := mustCatalog(t)
	info, ok := c.Info("LEGAL_NOTICE")
	if !ok || info.Name != "Legal Notice" || info.SampleStructure == "" {
		t.Errorf("Info(LEGAL_NOTICE) = %+v, %v", info, ok)
	}
	if _, ok := c.Info("Legal Notice"); ok {
		t.Error("Info should not resolve friendly names")
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := map[string]string{
		"malformed":    "templates: [",
		"missing name": "templates:\n  - code: X\n",
		"duplicate":    "templates:\n  - {code: X, name: A}\n  - {code: X, name: B}\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseCatalog([]byte(data)); err == nil {
				t.Error("ParseCatalog() expected error")
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Fields
		check map[string]string
	}{
		{
			name: "aliases resolve",
			in:   Fields{"info": "Copies of file notings", "phoneNumber": "9876543210", "emailId": "a@b.in", "paymentMethod": "IPO"},
			check: map[string]string{
				"informationPoints": "Copies of file notings",
				"mobile":            "9876543210",
				"email":             "a@b.in",
				"paymentMode":       "IPO",
			},
		},
		{
			name:  "canonical wins over alias",
			in:    Fields{"phone": "111", "mobile": "222"},
			check: map[string]string{"mobile": "222"},
		},
		{
			name: "defaults",
			in:   Fields{"department": "Ministry of Railways"},
			check: map[string]string{
				"departmentAddress": "Ministry of Railways, Government of India",
				"email":             "N/A",
				"paymentMode":       "Cash/Demand Draft",
				"date":              "07/03/2025",
			},
		},
		{
			name:  "generic department address",
			in:    Fields{},
			check: map[string]string{"departmentAddress": "Relevant Department Address"},
		},
		{
			name:  "empty string is replaced by default",
			in:    Fields{"email": ""},
			check: map[string]string{"email": "N/A"},
		},
		{
			name:  "supplied date kept",
			in:    Fields{"date": "01/01/2024"},
			check: map[string]string{"date": "01/01/2024"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, fixedNow)
			for k, want := range tt.check {
				if got.String(k) != want {
					t.Errorf("%s = %q, want %q", k, got.String(k), want)
				}
			}
		})
	}
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := Fields{"info": "x"}
	_ = Normalize(in, fixedNow)
	if len(in) != 1 {
		t.Errorf("input mutated: %v", in)
	}
}

func TestFields_String(t *testing.T) {
	f := Fields{
		"list":   []any{"Copy of FIR", "Medical report"},
		"amount": float64(15000),
		"rate":   2.5,
	}
	if got := f.String("list"); got != "Copy of FIR\nMedical report" {
		t.Errorf("list = %q", got)
	}
	if got := f.String("amount"); got != "15000" {
		t.Errorf("amount = %q", got)
	}
	if got := f.String("rate"); got != "2.5" {
		t.Errorf("rate = %q", got)
	}
	if got := f.String("missing"); got != "" {
		t.Errorf("missing = %q", got)
	}
}

func TestValidate(t *testing.T) {
	c := mustCatalog(t)
	rti, _ := c.Get("RTI_APPLICATION")

	if err := Validate(rti, Fields{"applicantName": "Asha Rao", "department": "Ministry of Railways"}); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	err := Validate(rti, Fields{"department": "Ministry of Railways", "applicantName": ""})
	var missing *MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("Validate() error = %v, want MissingFieldsError", err)
	}
	if strings.Join(missing.Missing, ",") != "applicantName" {
		t.Errorf("Missing = %v", missing.Missing)
	}

	err = Validate(rti, Fields{})
	want := "Missing critical fields: applicantName, department. Please provide at least applicant name and department."
	if err == nil || err.Error() != want {
		t.Errorf("Validate() error = %v, want %q", err, want)
	}
}

func TestValidate_PerTemplate(t *testing.T) {
	c := mustCatalog(t)
	affidavit, _ := c.Get("AFFIDAVIT")
	if err := Validate(affidavit, Fields{"deponentName": "Ravi Kumar"}); err != nil {
		t.Errorf("affidavit should only need a deponent: %v", err)
	}
	fir, _ := c.Get("FIR_COMPLAINT")
	if err := Validate(fir, Fields{"complainantName": "Meena"}); err == nil || !strings.Contains(err.Error(), "policeStation") {
		t.Errorf("FIR without police station: error = %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	c := mustCatalog(t)
	rti, _ := c.Get("RTI_APPLICATION")
	f := Normalize(Fields{"applicantName": "Asha Rao", "department": "Ministry of Railways"}, fixedNow)

	prompt, err := BuildPrompt(rti, f, fixedNow)
	if err != nil {
		t.Fatalf("BuildPrompt() error = %v", err)
	}
	for _, want := range []string{
		"Generate a properly formatted RTI Application following Indian legal standards.",
		"DOCUMENT TEMPLATE STRUCTURE:\nTo,\nThe Public Information Officer (PIO),",
		`  "applicantName": "Asha Rao"`,
		"(use 07/03/2025)",
		"12. Keep all legal terminology accurate as per Indian law",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestCamelCase(t *testing.T) {
	tests := map[string]string{
		"Police Station Name":            "policeStationName",
		"DISTRICT/STATE/NATIONAL":        "districtStateNational",
		"Advocate Enrollment No.":        "advocateEnrollmentNo",
		"PLACE":                          "place",
		"Statement of Fact 1":            "statementOfFact1",
		"Witness Name, Address, Contact": "witnessNameAddressContact",
	}
	for in, want := range tests {
		if got := camelCase(in); got != want {
			t.Errorf("camelCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFill(t *testing.T) {
	c := mustCatalog(t)
	rti, _ := c.Get("RTI_APPLICATION")
	f := Normalize(Fields{
		"applicantName":    "Asha Rao",
		"applicantAddress": "12 MG Road, Pune",
		"department":       "Ministry of Railways",
		"info":             []any{"1. Copies of file notings", "2. Tender register"},
		"phone":            "9876543210",
	}, fixedNow)

	out, err := Fill(rti, f)
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	for _, want := range []string{
		"The Public Information Officer (PIO),\nMinistry of Railways\nMinistry of Railways, Government of India\n",
		"Date: 07/03/2025",
		"1. Copies of file notings\n2. Tender register",
		"by way of Cash/Demand Draft.",
		"Mobile: 9876543210",
		"Email: N/A",
		"Yours faithfully,\nAsha Rao",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("draft missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "{{") {
		t.Error("draft contains template actions")
	}
}

func TestFill_UnknownPlaceholdersStay(t *testing.T) {
	c := mustCatalog(t)
	notice, _ := c.Get("LEGAL_NOTICE")
	out, err := Fill(notice, Fields{"clientName": "Sunil Mehta"})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if !strings.Contains(out, "Sunil Mehta") {
		t.Error("client name not filled")
	}
	if !strings.Contains(out, "[Advocate Signature]") {
		t.Error("unfilled placeholder should keep its brackets")
	}
}

func TestFill_LiteralBraces(t *testing.T) {
	tmpl := &Template{Code: "X", Name: "X", Structure: "Ref {{not an action}} for [Name]"}
	out, err := Fill(tmpl, Fields{"name": "Asha"})
	if err != nil {
		t.Fatalf("Fill() error = %v", err)
	}
	if out != "Ref {{not an action}} for Asha" {
		t.Errorf("Fill() = %q", out)
	}
}
