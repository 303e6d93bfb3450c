// Package assistant answers one visitor question end to end: classify,
// retrieve, gate on confidence, run the provider cascade and clean the
// result.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"askfolio/internal/answer"
	"askfolio/internal/models"
	"askfolio/internal/prompt"
	"askfolio/internal/providers"
	"askfolio/internal/retrieval"
	"askfolio/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyQuestion         = errors.New("question is required")
	ErrNoProvidersConfigured = errors.New("no answer providers configured")
)

const (
	ProviderClarify  = "clarify"
	ProviderFallback = "kb-fallback"

	historyTurns = 2
)

// Memory is the conversation log; memory.Store satisfies it.
type Memory interface {
	Append(ctx context.Context, t models.Turn) error
	Recent(ctx context.Context, sessionID string, n int) ([]models.Turn, error)
}

// AttemptRecorder persists cascade attempts; storage.AttemptRepo satisfies it.
type AttemptRecorder interface {
	RecordAttempts(ctx context.Context, requestID string, attempts []providers.Attempt) error
}

type Options struct {
	TopK          int
	LowConfidence float64
	Memory        Memory
	Audit         AttemptRecorder
	Logger        *zap.Logger
}

type Assistant struct {
	retriever *retrieval.Retriever
	assembler *prompt.Assembler
	providers *providers.Manager
	cascade   *providers.Cascade
	opts      Options
	logger    *zap.Logger
}

func New(r *retrieval.Retriever, a *prompt.Assembler, pm *providers.Manager, c *providers.Cascade, opts Options) *Assistant {
	if opts.TopK <= 0 {
		opts.TopK = retrieval.DefaultK
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{retriever: r, assembler: a, providers: pm, cascade: c, opts: opts, logger: logger}
}

type Request struct {
	Question  string
	TopicHint string
	SessionID string
}

type Response struct {
	RequestID     string
	Answer        string
	Provider      string
	Topic         models.Topic
	Sources       []models.Source
	Followups     []string
	Confidence    float64
	Clarification bool
	Skill         string
	Attempts      []providers.Attempt
}

func (r Response) SourceStrings() []string {
	out := make([]string, 0, len(r.Sources))
	for _, s := range r.Sources {
		out = append(out, s.String())
	}
	return out
}

// ProviderNames lists the providers the cascade will try, in order.
func (a *Assistant) ProviderNames() []string {
	return a.providers.Names()
}

// Ask answers req. Provider failures never surface as errors; only an empty
// question and a deployment without providers do.
func (a *Assistant) Ask(ctx context.Context, req Request) (Response, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return Response{}, ErrEmptyQuestion
	}
	q := retrieval.NewQuery(question, req.TopicHint)
	bundle := a.retriever.Retrieve(ctx, question, a.opts.TopK, q.Topic)
	resp := Response{
		RequestID:  uuid.NewString(),
		Topic:      q.Topic,
		Confidence: bundle.Confidence,
	}

	if bundle.Empty() || bundle.Confidence < a.opts.LowConfidence {
		resp.Provider = ProviderClarify
		resp.Clarification = true
		resp.Answer = clarification(q.Topic)
		resp.Followups = answer.Followups(models.TopicAll)
		resp.Sources = []models.Source{}
		a.logger.Info("low confidence, asking for clarification",
			zap.String("request_id", resp.RequestID),
			zap.String("topic", string(q.Topic)),
			zap.Float64("confidence", bundle.Confidence),
		)
		a.remember(ctx, req.SessionID, question, resp)
		return resp, nil
	}

	if a.providers == nil || a.providers.LLMCount() == 0 {
		return Response{}, ErrNoProvidersConfigured
	}

	history := a.history(ctx, req.SessionID)
	p := a.assembler.Assemble(question, bundle, q.Topic, history)
	resp.Skill = p.Skill
	// only what survived the context budget is cited or quoted
	bundle = bundle.Head(p.Blocks)
	resp.Sources = bundle.Sources

	res, err := a.cascade.Answer(ctx, p.System, p.User, a.providers.Order())
	resp.Attempts = res.Attempts
	raw := res.Text
	resp.Provider = res.Provider
	if err != nil {
		a.logger.Warn("cascade exhausted, serving kb fallback",
			zap.String("request_id", resp.RequestID),
			zap.Error(err),
		)
		raw = fallbackAnswer(bundle)
		resp.Provider = ProviderFallback
	}
	resp.Answer, resp.Followups = answer.Finalize(raw, q.Topic)

	if a.opts.Audit != nil && len(res.Attempts) > 0 {
		if err := a.opts.Audit.RecordAttempts(ctx, resp.RequestID, res.Attempts); err != nil {
			a.logger.Warn("record provider attempts failed", zap.Error(err))
		}
	}
	a.remember(ctx, req.SessionID, question, resp)
	return resp, nil
}

// History returns the stored turns of a session, or nil when memory is off.
func (a *Assistant) History(ctx context.Context, sessionID string) ([]models.Turn, error) {
	if a.opts.Memory == nil {
		return nil, nil
	}
	return a.opts.Memory.Recent(ctx, sessionID, 0)
}

func (a *Assistant) history(ctx context.Context, sessionID string) []models.Turn {
	if a.opts.Memory == nil || sessionID == "" {
		return nil
	}
	turns, err := a.opts.Memory.Recent(ctx, sessionID, historyTurns)
	if err != nil {
		a.logger.Warn("load conversation history failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil
	}
	return turns
}

func (a *Assistant) remember(ctx context.Context, sessionID, question string, resp Response) {
	if a.opts.Memory == nil || sessionID == "" {
		return
	}
	err := a.opts.Memory.Append(ctx, models.Turn{
		TurnID:    resp.RequestID,
		SessionID: sessionID,
		Question:  question,
		Answer:    resp.Answer,
		Topic:     resp.Topic,
		Provider:  resp.Provider,
	})
	if err != nil {
		a.logger.Warn("append conversation turn failed", zap.String("session_id", sessionID), zap.Error(err))
	}
}

var topicNames = map[models.Topic]string{
	models.TopicDriving: "the autonomous-driving work",
	models.TopicWeb:     "the web projects",
	models.TopicAbout:   "the portfolio owner's background",
}

func clarification(topic models.Topic) string {
	if name, ok := topicNames[topic]; ok {
		return fmt.Sprintf("I couldn't find anything specific about that in %s. Could you rephrase the question or name the project you mean?", name)
	}
	return "I'm not sure which part of the portfolio you're asking about. " +
		"Could you say whether it concerns the autonomous-driving work, the web projects or the portfolio owner's background?"
}

const (
	fallbackApology   = "Sorry, I couldn't reach a language model just now, so here is what I found in the portfolio:"
	evidenceSentences = 2
	evidenceRunes     = 320
)

// fallbackAnswer stitches the bundle into a deterministic reply. KB units are
// quoted whole; PDF chunks contribute their best-matching sentences.
func fallbackAnswer(b retrieval.Bundle) string {
	lines := make([]string, 0, len(b.Units)+1)
	lines = append(lines, fallbackApology, "")
	for _, su := range b.Units {
		u := su.Unit
		if u.Kind == models.KindPDF {
			lines = append(lines, fmt.Sprintf("- %s (p.%d): %s", u.Title, u.Page, evidence(u.Body, b.Query.Tokens)))
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s: %s", u.Title, util.Snippet(u.Body, 0)))
	}
	return strings.Join(lines, "\n")
}

func evidence(body string, tokens []string) string {
	sentences := util.SplitSentences(body)
	if len(sentences) == 0 {
		return util.Snippet(body, evidenceRunes)
	}
	type scored struct {
		idx   int
		score int
	}
	list := make([]scored, 0, len(sentences))
	for i, s := range sentences {
		list = append(list, scored{idx: i, score: retrieval.Score(tokens, s)})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })
	if len(list) > evidenceSentences {
		list = list[:evidenceSentences]
	}
	sort.Slice(list, func(i, j int) bool { return list[i].idx < list[j].idx })
	picked := make([]string, 0, len(list))
	for _, s := range list {
		picked = append(picked, sentences[s.idx])
	}
	return util.Snippet(strings.Join(picked, " "), evidenceRunes)
}
