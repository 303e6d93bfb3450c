package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"askfolio/internal/chunkstore"
	"askfolio/internal/kb"
	"askfolio/internal/models"
	"askfolio/internal/prompt"
	"askfolio/internal/providers"
	"askfolio/internal/retrieval"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Generate(ctx context.Context, req providers.GenerateRequest) (providers.GenerateResponse, providers.ProviderInfo, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(providers.GenerateResponse), args.Get(1).(providers.ProviderInfo), args.Error(2)
}

type fakeMemory struct {
	mu    sync.Mutex
	turns []models.Turn
}

func (f *fakeMemory) Append(_ context.Context, t models.Turn) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, t)
	return nil
}

func (f *fakeMemory) Recent(_ context.Context, sessionID string, n int) ([]models.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Turn
	for _, t := range f.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	if n > 0 && len(out) > n {
		out = out[len(out)-n:]
	}
	return out, nil
}

type fakeAudit struct {
	requestID string
	attempts  []providers.Attempt
}

func (f *fakeAudit) RecordAttempts(_ context.Context, requestID string, attempts []providers.Attempt) error {
	f.requestID = requestID
	f.attempts = attempts
	return nil
}

func fixtureRetriever(dynamic ...models.TextUnit) *retrieval.Retriever {
	k := kb.New([]models.TextUnit{
		{ID: "driving-sensors", Kind: models.KindKB, Title: "Perception sensors", Body: "The vehicle uses LiDAR and radar sensors.", TopicTag: models.TopicDriving},
		{ID: "web-overview", Kind: models.KindKB, Title: "Web work", Body: "Portfolio site and booking platform.", TopicTag: models.TopicWeb},
		{ID: "about-overview", Kind: models.KindKB, Title: "About", Body: "Software engineer.", TopicTag: models.TopicAbout},
	}, map[models.Topic]string{
		models.TopicDriving: "driving-sensors",
		models.TopicWeb:     "web-overview",
		models.TopicAbout:   "about-overview",
	})
	return retrieval.NewRetriever(chunkstore.New(k, chunkstore.NewMemory(dynamic...), nil))
}

func newAssistant(r *retrieval.Retriever, pm *providers.Manager, opts Options) *Assistant {
	if opts.LowConfidence == 0 {
		opts.LowConfidence = 0.15
	}
	return New(r, prompt.NewAssembler(0, prompt.RuneCounter{}), pm, providers.NewCascade(time.Second, nil), opts)
}

func named(name string, p providers.LLMProvider) providers.NamedLLMProvider {
	return providers.NamedLLMProvider{Ref: providers.ProviderRef{Raw: name, Name: name}, Provider: p}
}

func TestAskSensorsEndToEnd(t *testing.T) {
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(named("echo", providers.NewMockProvider())), Options{})

	resp, err := a.Ask(context.Background(), Request{Question: "What sensors does it use?"})
	require.NoError(t, err)
	assert.Equal(t, models.TopicDriving, resp.Topic)
	assert.Equal(t, "echo", resp.Provider)
	assert.False(t, resp.Clarification)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "driving-sensors", resp.Sources[0].ID)
	assert.Equal(t, []string{"Perception sensors [kb:driving-sensors]"}, resp.SourceStrings())
	assert.Contains(t, resp.Answer, "LiDAR")
	assert.InDelta(t, 1.0, resp.Confidence, 1e-9)
	assert.NotEmpty(t, resp.Followups)
	require.Len(t, resp.Attempts, 1)
	assert.Equal(t, providers.StatusOK, resp.Attempts[0].Status)
}

func TestAskExhaustionFallsBackToKB(t *testing.T) {
	p1, p2 := &mockProvider{}, &mockProvider{}
	p1.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("503 unavailable"))
	p2.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("401 bad key"))
	audit := &fakeAudit{}
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(named("p1", p1), named("p2", p2)), Options{Audit: audit})

	resp, err := a.Ask(context.Background(), Request{Question: "What sensors does it use?"})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallback, resp.Provider)
	assert.True(t, strings.HasPrefix(resp.Answer, "Sorry"))
	assert.Contains(t, resp.Answer, "Perception sensors")
	p1.AssertNumberOfCalls(t, "Generate", 1)
	p2.AssertNumberOfCalls(t, "Generate", 1)
	assert.Equal(t, resp.RequestID, audit.requestID)
	assert.Len(t, audit.attempts, 2)
}

func TestFallbackQuotesBestPDFSentences(t *testing.T) {
	cv := models.TextUnit{
		ID: "cv-1", Kind: models.KindPDF, Title: "CV", Page: 1, SourceURL: "https://x/cv.pdf", TopicTag: models.TopicAny,
		Body: "Intro sentence. Worked on radar calibration for the shuttle. Unrelated closing.",
	}
	p := &mockProvider{}
	p.On("Generate", mock.Anything, mock.Anything).Return(providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("boom"))
	a := newAssistant(fixtureRetriever(cv), providers.NewStaticManager(named("p", p)), Options{})

	resp, err := a.Ask(context.Background(), Request{Question: "radar calibration"})
	require.NoError(t, err)
	assert.Equal(t, ProviderFallback, resp.Provider)
	assert.Contains(t, resp.Answer, "- CV (p.1): Intro sentence. Worked on radar calibration for the shuttle.")
	assert.NotContains(t, resp.Answer, "Unrelated closing")
	assert.Contains(t, resp.SourceStrings(), "CV, p.1 [pdf:cv-1] https://x/cv.pdf")
}

func TestSourcesFollowBudgetedBlocks(t *testing.T) {
	long := func(id, title string) models.TextUnit {
		return models.TextUnit{
			ID: id, Kind: models.KindPDF, Title: title, Page: 1, TopicTag: models.TopicAny,
			Body: strings.Repeat("Radar calibration notes. ", 80),
		}
	}
	p := &mockProvider{}
	var sent string
	p.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(providers.GenerateRequest).Prompt }).
		Return(providers.GenerateResponse{}, providers.ProviderInfo{}, errors.New("503 unavailable"))
	r := fixtureRetriever(long("pdf-a", "Notes A"), long("pdf-b", "Notes B"), long("pdf-c", "Notes C"))
	// each block is ~2000 runes, ~500 tokens; only the first fits
	a := New(r, prompt.NewAssembler(600, prompt.RuneCounter{}), providers.NewStaticManager(named("p", p)), providers.NewCascade(time.Second, nil), Options{LowConfidence: 0.15})

	resp, err := a.Ask(context.Background(), Request{Question: "radar calibration"})
	require.NoError(t, err)
	assert.Contains(t, sent, "#1 Notes A")
	assert.NotContains(t, sent, "#2 ")
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "pdf-a", resp.Sources[0].ID)

	assert.Equal(t, ProviderFallback, resp.Provider)
	assert.Contains(t, resp.Answer, "Notes A")
	assert.NotContains(t, resp.Answer, "Notes B")
	assert.NotContains(t, resp.Answer, "Notes C")
}

func TestAskClarifiesWithoutCallingProviders(t *testing.T) {
	p := &mockProvider{}
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(named("p", p)), Options{LowConfidence: 0.15})

	resp, err := a.Ask(context.Background(), Request{Question: "asdkjasd"})
	require.NoError(t, err)
	assert.True(t, resp.Clarification)
	assert.Equal(t, ProviderClarify, resp.Provider)
	assert.Equal(t, models.TopicAll, resp.Topic)
	assert.Contains(t, resp.Answer, "Could you say whether")
	assert.Empty(t, resp.Sources)
	p.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestAskNoProvidersConfigured(t *testing.T) {
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(), Options{})
	_, err := a.Ask(context.Background(), Request{Question: "What sensors does it use?"})
	assert.ErrorIs(t, err, ErrNoProvidersConfigured)

	// the clarification gate still answers without providers
	resp, err := a.Ask(context.Background(), Request{Question: "asdkjasd"})
	require.NoError(t, err)
	assert.True(t, resp.Clarification)
}

func TestAskEmptyQuestion(t *testing.T) {
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(), Options{})
	_, err := a.Ask(context.Background(), Request{Question: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestTopicHintOverridesClassifier(t *testing.T) {
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(named("echo", providers.NewMockProvider())), Options{})
	resp, err := a.Ask(context.Background(), Request{Question: "Tell me about the booking platform", TopicHint: "web"})
	require.NoError(t, err)
	assert.Equal(t, models.TopicWeb, resp.Topic)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "web-overview", resp.Sources[0].ID)
}

func TestSessionHistoryFeedsPrompt(t *testing.T) {
	mem := &fakeMemory{}
	p := &mockProvider{}
	var prompts []string
	p.On("Generate", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			prompts = append(prompts, args.Get(1).(providers.GenerateRequest).Prompt)
		}).
		Return(providers.GenerateResponse{Text: "It uses LiDAR and radar."}, providers.ProviderInfo{Model: "m"}, nil)
	a := newAssistant(fixtureRetriever(), providers.NewStaticManager(named("p", p)), Options{Memory: mem})

	_, err := a.Ask(context.Background(), Request{Question: "What sensors does it use?", SessionID: "s1"})
	require.NoError(t, err)
	_, err = a.Ask(context.Background(), Request{Question: "How is the radar used?", SessionID: "s1"})
	require.NoError(t, err)

	require.Len(t, prompts, 2)
	assert.NotContains(t, prompts[0], "Earlier in this conversation")
	assert.Contains(t, prompts[1], "Q: What sensors does it use?\nA: It uses LiDAR and radar.")

	turns, err := a.History(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "p", turns[1].Provider)
}
