package main

import (
	"fmt"
	"strings"

	"github.com/muhammadolammi/resumeparser/internal/sections"
)

const maxJobTitles = 5

var sectionLabels = []struct {
	ID    sections.SectionID
	Label string
}{
	{sections.Skills, "Skills"},
	{sections.WorkExperience, "Work Experience"},
	{sections.Projects, "Projects"},
}

func prompt() string {
	return fmt.Sprintf(`
	You are an expert AI career assistant that suggests job titles for a candidate based on sections extracted from their resume.

Your goal is to:
- Read the candidate's skills, work experience and projects.
- Decide which job titles the candidate is best qualified for today.
- Rank them from best fit (rank 1) to weakest fit.
- Suggest at most %d job titles.

Return your result as a structured JSON object in this format:

{
  "job_titles": [
    {"title": string, "rank": number, "reason": string}
  ]
}


Keep each reason to one short sentence.
Base all reasoning only on the provided text. Some sections may be missing.
Do not make up data or assume experience not explicitly mentioned.
Return only valid JSON. Do not include explanations, markdown, or text before or after the JSON.
Your response must be a single JSON object.
	`, maxJobTitles)
}

// BuildSuggestionPrompt formats extracted sections as the user message
// sent to the suggestion agent.
func BuildSuggestionPrompt(secs sections.Result) string {
	var b strings.Builder
	for i, s := range sectionLabels {
		if i > 0 {
			b.WriteString("\n\n")
		}
		text := secs.Get(s.ID)
		if text == "" {
			text = "(none found)"
		}
		fmt.Fprintf(&b, "%s:\n%s", s.Label, text)
	}
	return b.String()
}
