// Package drafting holds the legal document templates and the rules for turning user-supplied
// fields into a drafting prompt or an offline draft.
package drafting

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates.yaml
var templatesYAML []byte

// ErrUnknownType is returned when a document type matches no template.
var ErrUnknownType = errors.New("unknown document type")

// Template describes one legal document format.
type Template struct {
	Code           string            `yaml:"code"`
	Name           string            `yaml:"name"`
	CriticalFields []string          `yaml:"critical_fields"`
	Placeholders   map[string]string `yaml:"placeholders"`
	RequiredFields []string          `yaml:"required_fields"`
	Structure      string            `yaml:"structure"`
}

// TypeInfo is the public summary of a template.
type TypeInfo struct {
	Type           string   `json:"type"`
	Name           string   `json:"name"`
	RequiredFields []string `json:"requiredFields"`
}

// TemplateInfo is the detailed view of a single template.
type TemplateInfo struct {
	Name            string   `json:"name"`
	RequiredFields  []string `json:"requiredFields"`
	SampleStructure string   `json:"sampleStructure"`
}

// Catalog is an ordered, read-only set of templates.
type Catalog struct {
	templates []Template
	byCode    map[string]int
}

// NewCatalog parses the embedded template catalogue.
func NewCatalog() (*Catalog, error) {
	return ParseCatalog(templatesYAML)
}

// ParseCatalog parses a YAML catalogue with a top-level templates list.
func ParseCatalog(data []byte) (*Catalog, error) {
	var doc struct {
		Templates []Template `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse template catalogue: %w", err)
	}

	c := &Catalog{byCode: make(map[string]int, len(doc.Templates))}
	for _, t := range doc.Templates {
		if t.Code == "" || t.Name == "" {
			return nil, fmt.Errorf("template %q: code and name are required", t.Code)
		}
		if _, dup := c.byCode[t.Code]; dup {
			return nil, fmt.Errorf("template %q defined twice", t.Code)
		}
		c.byCode[t.Code] = len(c.templates)
		c.templates = append(c.templates, t)
	}
	return c, nil
}

// Lookup finds a template by its code or, failing that, by its name ignoring case.
func (c *Catalog) Lookup(typeOrName string) (*Template, error) {
	if t, ok := c.Get(typeOrName); ok {
		return t, nil
	}
	for i := range c.templates {
		if strings.EqualFold(c.templates[i].Name, typeOrName) {
			return &c.templates[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s. Available types: %s", ErrUnknownType, typeOrName, strings.Join(c.Codes(), ", "))
}

// Get returns the template with exactly this code.
func (c *Catalog) Get(code string) (*Template, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return nil, false
	}
	return &c.templates[i], true
}

// Codes returns the template codes in catalogue order.
func (c *Catalog) Codes() []string {
	out := make([]string, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t.Code)
	}
	return out
}

// Types lists every template in catalogue order.
func (c *Catalog) Types() []TypeInfo {
	out := make([]TypeInfo, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, TypeInfo{Type: t.Code, Name: t.Name, RequiredFields: t.RequiredFields})
	}
	return out
}

// Info returns the detailed view of the template with this code.
func (c *Catalog) Info(code string) (TemplateInfo, bool) {
	t, ok := c.Get(code)
	if !ok {
		return TemplateInfo{}, false
	}
	return TemplateInfo{Name: t.Name, RequiredFields: t.RequiredFields, SampleStructure: t.Structure}, true
}
