package assistant

import (
	"fmt"
	"strings"
)

// Fields the assistant can draft text for.
const (
	FieldMotivation = "motivation"
	FieldPhilosophy = "philosophy"
	FieldExperience = "experience_description"
)

const systemPrompt = `You help instructor applicants write short, concrete
application texts. Answer with the suggested text only, no preamble, no
markdown. Keep the applicant's own facts; never invent credentials.`

var fieldInstructions = map[string]string{
	FieldMotivation: "Write a motivation statement (120-200 words) for becoming an instructor on the platform.",
	FieldPhilosophy: "Write a teaching philosophy (2-4 sentences) grounded in the applicant's subjects and experience.",
	FieldExperience: "Write a concise description (2-3 sentences) of the work experience below, highlighting teaching-relevant skills.",
}

// KnownField reports whether the assistant supports a field.
func KnownField(field string) bool {
	_, ok := fieldInstructions[field]
	return ok
}

// buildUserPrompt combines the field instruction with the applicant-provided
// context (current draft, subjects, experience notes).
func buildUserPrompt(field string, contextLines []string) string {
	var b strings.Builder
	fmt.Fprintln(&b, fieldInstructions[field])
	if len(contextLines) > 0 {
		fmt.Fprintln(&b, "\nApplicant context:")
		for _, line := range contextLines {
			fmt.Fprintf(&b, "- %s\n", line)
		}
	}
	return b.String()
}
