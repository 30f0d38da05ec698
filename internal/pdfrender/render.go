// Package pdfrender lays out drafted legal documents as A4 PDFs.
package pdfrender

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
	"github.com/yuin/goldmark"
)

const (
	margin     = 50.0
	titleSize  = 14.0
	bodySize   = 11.0
	footerSize = 9.0
	leading    = 1.2
)

var (
	headerPattern  = regexp.MustCompile(`(?i)^(\d+\.|Subject:|To,|Date:|From:|Name:|Address:|PRAYER|MOST RESPECTFULLY|BEFORE THE)`)
	closingPattern = regexp.MustCompile(`(?i)^(Yours |Respectfully|Sincerely|Signature|Place:|Date:)`)
)

// DefaultFooter is printed centred under every document.
var DefaultFooter = []string{
	"Generated by Nyay-mitra Legal Assistant",
	"This is an AI-generated document following Indian legal standards.",
	"Please review and consult a legal professional before use.",
}

// LineKind classifies a line of drafted text for layout.
type LineKind int

const (
	Blank LineKind = iota
	Title
	Header
	Closing
	Body
)

func (k LineKind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Title:
		return "title"
	case Header:
		return "header"
	case Closing:
		return "closing"
	default:
		return "body"
	}
}

// Classify decides how a trimmed line is set.
func Classify(line string) LineKind {
	if line == "" {
		return Blank
	}
	if n := utf8.RuneCountInString(line); line == strings.ToUpper(line) && n > 3 && n < 100 {
		return Title
	}
	if headerPattern.MatchString(line) {
		return Header
	}
	if closingPattern.MatchString(line) {
		return Closing
	}
	return Body
}

// Renderer turns plain or lightly marked-up text into a PDF.
type Renderer struct {
	md     goldmark.Markdown
	footer []string
}

// New creates a renderer. A nil footer means DefaultFooter.
func New(footer []string) *Renderer {
	if footer == nil {
		footer = DefaultFooter
	}
	return &Renderer{md: inlineMarkdown(), footer: footer}
}

// Render writes content to w as a PDF document.
func (r *Renderer) Render(w io.Writer, content string) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle("Nyay-mitra document", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, raw := range strings.Split(content, "\n") {
		line := plainLine(r.md, strings.TrimSpace(raw))
		line = strings.ReplaceAll(line, "₹", "Rs. ")

		switch Classify(line) {
		case Blank:
			pdf.Ln(0.5 * bodySize * leading)
		case Title:
			pdf.SetFont("Helvetica", "B", titleSize)
			pdf.MultiCell(0, titleSize*leading, tr(line), "", "C", false)
			pdf.Ln(titleSize * leading)
		case Header:
			pdf.SetFont("Helvetica", "B", bodySize)
			pdf.MultiCell(0, bodySize*leading, tr(line), "", "L", false)
			pdf.Ln(0.5 * bodySize * leading)
		case Closing:
			pdf.SetFont("Helvetica", "", bodySize)
			pdf.MultiCell(0, bodySize*leading, tr(line), "", "L", false)
			pdf.Ln(0.3 * bodySize * leading)
		default:
			pdf.SetFont("Helvetica", "", bodySize)
			pdf.MultiCell(0, bodySize*leading+2, tr(line), "", "J", false)
			pdf.Ln(0.5 * bodySize * leading)
		}
	}

	if len(r.footer) > 0 {
		pdf.Ln(2 * bodySize * leading)
		pdf.SetFont("Helvetica", "I", footerSize)
		for _, line := range r.footer {
			pdf.MultiCell(0, footerSize*leading, tr(line), "", "C", false)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write pdf: %w", err)
	}
	return nil
}
