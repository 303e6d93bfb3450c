// Package answer cleans model output and attaches follow-up suggestions.
package answer

import (
	"regexp"
	"strings"

	"askfolio/internal/models"
)

var (
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	emptyHeadings = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*$`)
	trailingSpace = regexp.MustCompile(`(?m)[ \t]+$`)
)

var followups = map[models.Topic][]string{
	models.TopicDriving: {
		"How does the sensor fusion work?",
		"How is lane detection done?",
		"How is the planner tested before track runs?",
		"Which sensors are on the research vehicle?",
	},
	models.TopicWeb: {
		"What is the booking platform built with?",
		"How does this chat assistant work?",
		"What kind of dashboards has Jordan built?",
	},
	models.TopicAbout: {
		"What is Jordan's background?",
		"Is Jordan available for new roles?",
		"How can I get in touch?",
		"Where can I find the CV?",
	},
}

var generic = []string{
	"What autonomous-driving work is in the portfolio?",
	"Which web projects are featured?",
	"Who is behind this portfolio?",
}

// Finalize trims raw, collapses runs of blank lines and removes empty
// markdown headings. Cleaning repeats until nothing changes, so applying
// Finalize to its own output is a no-op.
func Finalize(raw string, topic models.Topic) (string, []string) {
	s := raw
	for {
		next := clean(s)
		if next == s {
			break
		}
		s = next
	}
	return s, Followups(topic)
}

// clean never lengthens its input.
func clean(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = trailingSpace.ReplaceAllString(s, "")
	s = emptyHeadings.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Followups returns a copy of the suggestions for topic, or the generic set.
func Followups(topic models.Topic) []string {
	f, ok := followups[topic]
	if !ok {
		f = generic
	}
	return append([]string(nil), f...)
}
