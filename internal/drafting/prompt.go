package drafting

import (
	"encoding/json"
	"fmt"
	"time"
)

// SystemPrompt frames the model as a drafter that returns only the document body.
const SystemPrompt = "You are an expert Indian legal document drafter with deep knowledge of Indian legal formats and requirements. Generate only the document content without any explanations."

// Sampling parameters for drafting. Low temperature keeps the layout stable.
const (
	Temperature float32 = 0.3
	MaxTokens           = 4096
)

const promptFormat = `You are an expert Indian legal document drafter. Generate a properly formatted %s following Indian legal standards.

DOCUMENT TEMPLATE STRUCTURE:
%s

USER PROVIDED INFORMATION:
%s

INSTRUCTIONS:
1. Fill in ALL placeholders with the provided information
2. Maintain proper legal formatting and structure as per Indian law
3. Use formal legal language appropriate for Indian courts
4. Ensure all dates are in DD/MM/YYYY format
5. Include proper salutations and closing statements
6. Maintain paragraph numbering and indentation
7. Add current date where [Date] is mentioned (use %s)
8. If any field shows "N/A", handle it gracefully in the document (e.g., omit email line if N/A)
9. For departmentAddress, if it's generic, use proper formatting
10. Ensure the document is complete and ready to file
11. Do NOT add any explanations or notes - only return the formatted document
12. Keep all legal terminology accurate as per Indian law

Generate the complete, formatted document now:`

// BuildPrompt renders the drafting request for template t filled from the normalised fields f.
func BuildPrompt(t *Template, f Fields, now time.Time) (string, error) {
	info, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode fields: %w", err)
	}
	return fmt.Sprintf(promptFormat, t.Name, t.Structure, info, now.Format(DateLayout)), nil
}
