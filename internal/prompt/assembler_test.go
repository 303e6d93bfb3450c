package prompt

import (
	"strings"
	"testing"

	"askfolio/internal/models"
	"askfolio/internal/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bundle(blocks ...string) retrieval.Bundle {
	return retrieval.Bundle{Blocks: blocks}
}

func TestSystemPromptCarriesHardRuleForEveryTopic(t *testing.T) {
	seen := map[string]struct{}{}
	for _, topic := range []models.Topic{models.TopicDriving, models.TopicWeb, models.TopicAbout, models.TopicAll, "unknown"} {
		s := SystemPrompt(topic)
		assert.Contains(t, s, "Do not use information outside the provided context")
		assert.Contains(t, s, "say so explicitly")
		seen[s] = struct{}{}
	}
	// driving, web, about, and one shared prompt for all/unknown
	assert.Len(t, seen, 4)
}

func TestAssembleGenericTemplate(t *testing.T) {
	a := NewAssembler(0, nil)
	p := a.Assemble("What sensors does it use?", bundle("#1 Sensors\nLiDAR and radar"), models.TopicDriving, nil)
	assert.Empty(t, p.Skill)
	assert.Equal(t, 1, p.Blocks)
	assert.Contains(t, p.User, "#1 Sensors\nLiDAR and radar")
	assert.Contains(t, p.User, "Question: What sensors does it use?")
	assert.Contains(t, p.User, "not specified")
	assert.Contains(t, p.System, "autonomous-driving")
}

func TestSkillPriority(t *testing.T) {
	a := NewAssembler(0, nil)
	cases := map[string]string{
		"Summarize the driving work":                      "summarize",
		"Summarize and compare the two projects":          "summarize",
		"Compare the booking platform and the site":       "compare",
		"What is the difference between lidar and radar?": "compare",
		"Translate the experience section into French":    "translate",
		"Describe the sensors in Spanish":                 "translate",
		"Explain like I'm five how lane detection works":  "eli5",
		"What sensors does it use?":                       "",
	}
	for q, want := range cases {
		p := a.Assemble(q, bundle("#1 X\ny"), models.TopicAll, nil)
		assert.Equal(t, want, p.Skill, q)
	}
}

func TestTranslateNamesLanguage(t *testing.T) {
	p := NewAssembler(0, nil).Assemble("Describe the sensors in spanish", bundle("#1 X\ny"), models.TopicDriving, nil)
	assert.Contains(t, p.User, "in Spanish")
}

func TestCustomSkillTable(t *testing.T) {
	a := NewAssembler(0, nil).WithSkills([]Skill{{
		ID:     "shout",
		Match:  func(q string) bool { return strings.HasSuffix(q, "!") },
		Render: func(q, c string) string { return strings.ToUpper(q) },
	}})
	p := a.Assemble("hello!", bundle("#1 X\ny"), models.TopicAll, nil)
	assert.Equal(t, "shout", p.Skill)
	assert.Equal(t, "HELLO!", p.User)
}

func TestBudgetDropsTrailingBlocks(t *testing.T) {
	blocks := []string{strings.Repeat("a", 40), strings.Repeat("b", 40), strings.Repeat("c", 40)}
	// RuneCounter: 40 runes -> 10 tokens; two blocks joined -> 82 runes -> 21 tokens
	p := NewAssembler(25, RuneCounter{}).Assemble("q", bundle(blocks...), models.TopicAll, nil)
	assert.Equal(t, 2, p.Blocks)
	assert.NotContains(t, p.User, "ccc")

	p = NewAssembler(1, RuneCounter{}).Assemble("q", bundle(blocks...), models.TopicAll, nil)
	assert.Equal(t, 1, p.Blocks)
	assert.Contains(t, p.User, "aaa")
}

func TestHistoryIsRendered(t *testing.T) {
	history := []models.Turn{
		{Question: "Who is Jordan?", Answer: "A software engineer."},
		{Question: "Where did they work?", Answer: "An autonomous shuttle team."},
	}
	p := NewAssembler(0, nil).Assemble("What did they build there?", bundle("#1 X\ny"), models.TopicAbout, history)
	require.Contains(t, p.User, "Earlier in this conversation:")
	assert.Contains(t, p.User, "Q: Who is Jordan?\nA: A software engineer.")
	assert.Less(t, strings.Index(p.User, "#1 X"), strings.Index(p.User, "Earlier in this conversation"))
}

func TestRuneCounter(t *testing.T) {
	assert.Equal(t, 0, RuneCounter{}.Count(""))
	assert.Equal(t, 1, RuneCounter{}.Count("abc"))
	assert.Equal(t, 2, RuneCounter{}.Count("abcde"))
}
