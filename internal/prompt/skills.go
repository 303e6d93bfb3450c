package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

// Skill reshapes the user prompt for a recognised kind of question.
type Skill struct {
	ID     string
	Match  func(question string) bool
	Render func(question, context string) string
}

var (
	summarizeRe = regexp.MustCompile(`(?i)\b(summari[sz]e|summary|tl;?dr|in short|in a nutshell|recap)\b`)
	compareRe   = regexp.MustCompile(`(?i)\b(compare|comparison|versus|vs\.?|difference between|differ)\b`)
	translateRe = regexp.MustCompile(`(?i)\btranslat(e|ion)\b`)
	languageRe  = regexp.MustCompile(`(?i)\b(?:in|into|to)\s+(spanish|french|german|italian|portuguese|dutch|japanese|chinese|korean|hindi|arabic)\b`)
	eli5Re      = regexp.MustCompile(`(?i)\b(eli5|explain like i'?m (?:five|5)|in simple terms|in plain english|for a beginner|non-technical)\b`)
)

// DefaultSkills is the priority order; the first match wins.
func DefaultSkills() []Skill {
	return []Skill{
		{ID: "summarize", Match: summarizeRe.MatchString, Render: renderSummarize},
		{ID: "compare", Match: compareRe.MatchString, Render: renderCompare},
		{ID: "translate", Match: func(q string) bool {
			return translateRe.MatchString(q) || languageRe.MatchString(q)
		}, Render: renderTranslate},
		{ID: "eli5", Match: eli5Re.MatchString, Render: renderELI5},
	}
}

func renderSummarize(question, context string) string {
	return "Context:\n" + context + "\n\n" +
		"Request: " + question + "\n\n" +
		"Summarize what the context says that is relevant to the request in at most five bullet points. " +
		"Use only the context. If part of the request is not covered, say it is not specified."
}

func renderCompare(question, context string) string {
	return "Context:\n" + context + "\n\n" +
		"Request: " + question + "\n\n" +
		"Compare the items named in the request using only the context. " +
		"Give the similarities, then the differences. " +
		"Where the context has nothing on one side of the comparison, state that it is not specified rather than guessing."
}

func renderTranslate(question, context string) string {
	lang := "the requested language"
	if m := languageRe.FindStringSubmatch(question); len(m) == 2 {
		lang = strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
	}
	return "Context:\n" + context + "\n\n" +
		"Request: " + question + "\n\n" +
		fmt.Sprintf("Answer the request in %s using only the context. ", lang) +
		"Keep product names, tool names and numbers unchanged. If the context does not cover the request, say so in " + lang + "."
}

func renderELI5(question, context string) string {
	return "Context:\n" + context + "\n\n" +
		"Request: " + question + "\n\n" +
		"Explain the answer for someone with no technical background, in short sentences and one everyday analogy at most. " +
		"Use only the context and say plainly when something is not specified."
}

func renderGeneric(question, context string) string {
	return "Context:\n" + context + "\n\n" +
		"Question: " + question + "\n\n" +
		"Answer using only the context above. " +
		"If the context does not contain the information asked for, say explicitly that it is not specified."
}
