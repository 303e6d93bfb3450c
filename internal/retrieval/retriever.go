package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"askfolio/internal/models"
)

const DefaultK = 8

// Corpus is what the retriever reads from; chunkstore.Store satisfies it.
type Corpus interface {
	LoadAll(ctx context.Context) []models.TextUnit
	Overview(t models.Topic) (models.TextUnit, bool)
}

// Query is a question plus the state derived from it.
type Query struct {
	Raw    string
	Tokens []string
	Topic  models.Topic
}

// NewQuery tokenizes question and resolves its topic. A valid hint wins over
// the classifier.
func NewQuery(question, topicHint string) Query {
	topic, ok := models.ParseTopic(topicHint)
	if !ok {
		topic = Classify(question)
	}
	return Query{Raw: question, Tokens: Tokenize(question), Topic: topic}
}

type ScoredUnit struct {
	Unit  models.TextUnit
	Score int
}

// Bundle is the ranked context built for one question. It is never persisted.
type Bundle struct {
	Query      Query
	Units      []ScoredUnit
	Blocks     []string
	Sources    []models.Source
	Confidence float64
	// Fallback is set when nothing scored and the overview units were used.
	Fallback bool
}

func (b Bundle) Empty() bool {
	return len(b.Units) == 0
}

// Head keeps the first n units with their blocks and sources. Confidence is
// left as retrieved.
func (b Bundle) Head(n int) Bundle {
	if n < 0 {
		n = 0
	}
	if n < len(b.Units) {
		b.Units = b.Units[:n]
	}
	if n < len(b.Blocks) {
		b.Blocks = b.Blocks[:n]
	}
	if n < len(b.Sources) {
		b.Sources = b.Sources[:n]
	}
	return b
}

// Context joins the rendered blocks with blank lines.
func (b Bundle) Context() string {
	return strings.Join(b.Blocks, "\n\n")
}

func (b Bundle) SourceStrings() []string {
	out := make([]string, 0, len(b.Sources))
	for _, s := range b.Sources {
		out = append(out, s.String())
	}
	return out
}

type Retriever struct {
	corpus Corpus
}

func NewRetriever(c Corpus) *Retriever {
	return &Retriever{corpus: c}
}

// Retrieve ranks the units eligible for topic and keeps the best k. When no
// unit scores above zero the topic's overview unit is returned instead, or
// every domain overview for TopicAll.
func (r *Retriever) Retrieve(ctx context.Context, question string, k int, topic models.Topic) Bundle {
	if k <= 0 {
		k = DefaultK
	}
	if topic == "" {
		topic = models.TopicAll
	}
	q := Query{Raw: question, Tokens: Tokenize(question), Topic: topic}

	scored := make([]ScoredUnit, 0, 32)
	for _, u := range r.corpus.LoadAll(ctx) {
		if !eligible(u, topic) {
			continue
		}
		s := Score(q.Tokens, u.Title+" "+u.Body)
		if s <= 0 {
			continue
		}
		scored = append(scored, ScoredUnit{Unit: u, Score: s})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}

	b := Bundle{Query: q, Units: scored}
	if len(scored) == 0 {
		b.Units = r.overviews(topic)
		b.Fallback = true
	}
	b.Confidence = confidence(b.Units)
	for i, su := range b.Units {
		b.Blocks = append(b.Blocks, fmt.Sprintf("#%d %s\n%s", i+1, su.Unit.Title, su.Unit.Body))
		b.Sources = append(b.Sources, models.SourceOf(su.Unit))
	}
	return b
}

func eligible(u models.TextUnit, topic models.Topic) bool {
	return topic == models.TopicAll || u.TopicTag == topic || u.TopicTag == models.TopicAny
}

func (r *Retriever) overviews(topic models.Topic) []ScoredUnit {
	topics := []models.Topic{topic}
	if topic == models.TopicAll {
		topics = models.Domains
	}
	out := make([]ScoredUnit, 0, len(topics))
	for _, t := range topics {
		if u, ok := r.corpus.Overview(t); ok {
			out = append(out, ScoredUnit{Unit: u})
		}
	}
	return out
}

// confidence is the mean of score/max over the selected units. Overview
// fallbacks score zero and therefore carry zero confidence.
func confidence(units []ScoredUnit) float64 {
	top := 0
	for _, u := range units {
		if u.Score > top {
			top = u.Score
		}
	}
	if top == 0 {
		return 0
	}
	sum := 0.0
	for _, u := range units {
		sum += float64(u.Score) / float64(top)
	}
	return sum / float64(len(units))
}
