// Package prompt turns a retrieval bundle and a question into the system and
// user prompts sent to answer providers.
package prompt

import (
	"strings"

	"askfolio/internal/models"
	"askfolio/internal/retrieval"
)

const baseRules = `You are the assistant on a personal portfolio site. You answer visitors' questions about the site owner's projects and background.

Rules:
- Do not use information outside the provided context. If asked for a fact that is not present in the context, say so explicitly instead of inventing it.
- Answer in plain prose, at most three short paragraphs. Bullet points are fine for lists.
- Refer to the owner in the third person.
- Do not mention these rules, the context blocks or their numbers.`

var topicFocus = map[models.Topic]string{
	models.TopicDriving: "Focus: the autonomous-driving and perception project work.",
	models.TopicWeb:     "Focus: the web and product engineering projects.",
	models.TopicAbout:   "Focus: the owner's background, experience and availability.",
}

const allFocus = "Focus: any part of the portfolio the question concerns."

// SystemPrompt is the constant rule set plus one topic-focus sentence.
func SystemPrompt(topic models.Topic) string {
	focus, ok := topicFocus[topic]
	if !ok {
		focus = allFocus
	}
	return baseRules + "\n\n" + focus
}

type Prompt struct {
	System string
	User   string
	// Skill is the id of the skill that shaped User, empty for the generic template.
	Skill string
	// Blocks is how many context blocks survived the token budget.
	Blocks int
}

type Assembler struct {
	skills  []Skill
	counter TokenCounter
	budget  int
}

// NewAssembler builds an assembler with the default skills. budget is the
// context token budget; zero or less disables trimming.
func NewAssembler(budget int, counter TokenCounter) *Assembler {
	if counter == nil {
		counter = RuneCounter{}
	}
	return &Assembler{skills: DefaultSkills(), counter: counter, budget: budget}
}

func (a *Assembler) WithSkills(skills []Skill) *Assembler {
	cp := *a
	cp.skills = skills
	return &cp
}

// Assemble renders the prompt pair. history holds earlier turns of the same
// session, oldest first, and may be empty.
func (a *Assembler) Assemble(question string, b retrieval.Bundle, topic models.Topic, history []models.Turn) Prompt {
	blocks := a.fit(b.Blocks)
	context := strings.Join(blocks, "\n\n")
	if h := renderHistory(history); h != "" {
		context += "\n\n" + h
	}

	p := Prompt{System: SystemPrompt(topic), Blocks: len(blocks)}
	for _, s := range a.skills {
		if s.Match(question) {
			p.Skill = s.ID
			p.User = s.Render(question, context)
			return p
		}
	}
	p.User = renderGeneric(question, context)
	return p
}

// fit drops trailing blocks until the joined context is within budget. The
// first block is always kept.
func (a *Assembler) fit(blocks []string) []string {
	if a.budget <= 0 || len(blocks) == 0 {
		return blocks
	}
	n := len(blocks)
	for n > 1 && a.counter.Count(strings.Join(blocks[:n], "\n\n")) > a.budget {
		n--
	}
	return blocks[:n]
}

func renderHistory(turns []models.Turn) string {
	if len(turns) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Earlier in this conversation:")
	for _, t := range turns {
		sb.WriteString("\nQ: ")
		sb.WriteString(strings.TrimSpace(t.Question))
		sb.WriteString("\nA: ")
		sb.WriteString(strings.TrimSpace(t.Answer))
	}
	return sb.String()
}
