package llm

import (
	"strings"

	"rob-assessor/internal/models"
)

// ComposePrompt builds the assessment prompt. The full text is embedded, never truncated.
func ComposePrompt(req models.AssessmentRequest) string {
	var promptBuilder strings.Builder

	promptBuilder.WriteString(req.Guidelines)
	promptBuilder.WriteString("\n\n")

	promptBuilder.WriteString("TRIAL TO ASSESS:\n")
	promptBuilder.WriteString("First Author: " + req.Author + "\n")
	promptBuilder.WriteString("Year: " + req.Year + "\n")
	promptBuilder.WriteString("Registration Number: " + req.Registration + "\n")
	promptBuilder.WriteString("Source PDF: " + req.SourceName + "\n\n")

	promptBuilder.WriteString("EXTRACTED TRIAL TEXT:\n")
	promptBuilder.WriteString(req.ExtractedText)
	promptBuilder.WriteString("\n\n")

	promptBuilder.WriteString("Now assess this trial. Provide output in JSON format.")

	return promptBuilder.String()
}
