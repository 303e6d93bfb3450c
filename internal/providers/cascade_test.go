package providers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProvider struct {
	text  string
	err   error
	wait  bool          // block until ctx is done
	hang  chan struct{} // block ignoring ctx
	calls int32
	req   GenerateRequest
}

func (s *stubProvider) Generate(ctx context.Context, req GenerateRequest) (GenerateResponse, ProviderInfo, error) {
	atomic.AddInt32(&s.calls, 1)
	s.req = req
	info := ProviderInfo{Model: "stub-model"}
	switch {
	case s.wait:
		<-ctx.Done()
		return GenerateResponse{}, info, ctx.Err()
	case s.hang != nil:
		<-s.hang
		return GenerateResponse{Text: "too late"}, info, nil
	case s.err != nil:
		return GenerateResponse{}, info, s.err
	}
	return GenerateResponse{Text: s.text}, info, nil
}

func named(name string, p LLMProvider) NamedLLMProvider {
	return NamedLLMProvider{Ref: ProviderRef{Raw: name, Name: name}, Provider: p}
}

func TestCascadeStopsAtFirstSuccess(t *testing.T) {
	p1 := &stubProvider{err: errors.New("500 internal")}
	p2 := &stubProvider{text: "LiDAR and radar."}
	p3 := &stubProvider{text: "never"}
	c := NewCascade(time.Second, zap.NewNop())

	res, err := c.Answer(context.Background(), "sys", "user", []NamedLLMProvider{named("p1", p1), named("p2", p2), named("p3", p3)})
	require.NoError(t, err)
	assert.Equal(t, "p2", res.Provider)
	assert.Equal(t, "LiDAR and radar.", res.Text)
	assert.Equal(t, "stub-model", res.Model)
	assert.EqualValues(t, 1, atomic.LoadInt32(&p1.calls))
	assert.EqualValues(t, 1, atomic.LoadInt32(&p2.calls))
	assert.EqualValues(t, 0, atomic.LoadInt32(&p3.calls))
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, StatusError, res.Attempts[0].Status)
	assert.Equal(t, StatusOK, res.Attempts[1].Status)
	assert.Equal(t, "sys", p2.req.System)
	assert.Equal(t, "user", p2.req.Prompt)
}

func TestCascadeTimeoutMovesOn(t *testing.T) {
	hang := make(chan struct{})
	t.Cleanup(func() { close(hang) })
	slow := &stubProvider{wait: true}
	stuck := &stubProvider{hang: hang}
	ok := &stubProvider{text: "answer"}
	c := NewCascade(20*time.Millisecond, nil)

	start := time.Now()
	res, err := c.Answer(context.Background(), "s", "u", []NamedLLMProvider{named("slow", slow), named("stuck", stuck), named("ok", ok)})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Provider)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, StatusTimeout, res.Attempts[0].Status)
	assert.Equal(t, ErrorTimeout, res.Attempts[0].ErrorType)
	assert.Equal(t, StatusTimeout, res.Attempts[1].Status)
}

func TestCascadeSkipsEmptyText(t *testing.T) {
	blank := &stubProvider{text: "  \n "}
	ok := &stubProvider{text: "answer"}
	res, err := NewCascade(time.Second, nil).Answer(context.Background(), "s", "u", []NamedLLMProvider{named("blank", blank), named("ok", ok)})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Provider)
	assert.Equal(t, StatusEmpty, res.Attempts[0].Status)
	assert.Equal(t, ErrorEmpty, res.Attempts[0].ErrorType)
}

func TestCascadeExhaustion(t *testing.T) {
	p1 := &stubProvider{err: errors.New("boom")}
	p2 := &stubProvider{err: errors.New("429 slow down")}
	res, err := NewCascade(time.Second, nil).Answer(context.Background(), "s", "u", []NamedLLMProvider{named("p1", p1), named("p2", p2)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Contains(t, err.Error(), "p1: boom")
	assert.Contains(t, err.Error(), "p2: 429 slow down")
	assert.Empty(t, res.Provider)
	require.Len(t, res.Attempts, 2)
	assert.Equal(t, ErrorRate, res.Attempts[1].ErrorType)

	_, err = NewCascade(time.Second, nil).Answer(context.Background(), "s", "u", nil)
	assert.True(t, errors.Is(err, ErrExhausted))
}

func TestCascadeStopsWhenCallerCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &stubProvider{text: "x"}
	res, err := NewCascade(time.Second, nil).Answer(ctx, "s", "u", []NamedLLMProvider{named("p", p)})
	require.Error(t, err)
	assert.Empty(t, res.Attempts)
	assert.EqualValues(t, 0, atomic.LoadInt32(&p.calls))
}
