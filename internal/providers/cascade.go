package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

const DefaultTimeout = 30 * time.Second

const (
	StatusOK      = "ok"
	StatusError   = "error"
	StatusTimeout = "timeout"
	StatusEmpty   = "empty"
)

// Attempt records one provider call made by the cascade.
type Attempt struct {
	Provider  string        `json:"provider"`
	Model     string        `json:"model"`
	Status    string        `json:"status"`
	ErrorType ErrorType     `json:"error_type,omitempty"`
	Error     string        `json:"error,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

type Result struct {
	Text     string
	Provider string
	Model    string
	Attempts []Attempt
}

// Cascade tries providers one after another, each under its own timeout,
// and stops at the first non-empty answer. There are no retries within a
// provider.
type Cascade struct {
	timeout time.Duration
	logger  *zap.Logger
}

func NewCascade(timeout time.Duration, logger *zap.Logger) *Cascade {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cascade{timeout: timeout, logger: logger}
}

type outcome struct {
	resp GenerateResponse
	info ProviderInfo
	err  error
}

// Answer runs the cascade over order. When every provider fails the returned
// error wraps ErrExhausted together with each attempt's error.
func (c *Cascade) Answer(ctx context.Context, system, user string, order []NamedLLMProvider) (Result, error) {
	var (
		res  Result
		merr *multierror.Error
	)
	req := GenerateRequest{Operation: "ask", System: system, Prompt: user}
	for _, p := range order {
		if ctx.Err() != nil {
			merr = multierror.Append(merr, fmt.Errorf("cascade stopped: %w", ctx.Err()))
			break
		}
		start := time.Now()
		o := c.call(ctx, p.Provider, req)
		a := Attempt{Provider: p.Ref.Name, Model: o.info.Model, Elapsed: time.Since(start)}
		err := o.err
		if err == nil && strings.TrimSpace(o.resp.Text) == "" {
			err = ErrEmptyResponse
		}
		switch {
		case err == nil:
			a.Status = StatusOK
		case errors.Is(err, context.DeadlineExceeded):
			a.Status = StatusTimeout
		case errors.Is(err, ErrEmptyResponse):
			a.Status = StatusEmpty
		default:
			a.Status = StatusError
		}
		if err != nil {
			a.ErrorType = ClassifyError(err)
			a.Error = err.Error()
		}
		res.Attempts = append(res.Attempts, a)
		c.logger.Info("provider attempt",
			zap.String("provider", a.Provider),
			zap.String("model", a.Model),
			zap.String("status", a.Status),
			zap.String("error_type", string(a.ErrorType)),
			zap.Duration("elapsed", a.Elapsed),
			zap.Error(err),
		)
		if err == nil {
			res.Text = o.resp.Text
			res.Provider = p.Ref.Name
			res.Model = o.info.Model
			return res, nil
		}
		merr = multierror.Append(merr, fmt.Errorf("%s: %w", p.Ref.Name, err))
	}
	c.logger.Warn("all answer providers failed", zap.Int("attempts", len(res.Attempts)), zap.Error(merr.ErrorOrNil()))
	if merr == nil {
		return res, ErrExhausted
	}
	return res, fmt.Errorf("%w: %w", ErrExhausted, merr)
}

// call runs one provider under the per-attempt timeout. A provider that
// ignores cancellation is abandoned when the timer fires.
func (c *Cascade) call(ctx context.Context, p LLMProvider, req GenerateRequest) outcome {
	actx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ch := make(chan outcome, 1)
	go func() {
		resp, info, err := p.Generate(actx, req)
		ch <- outcome{resp: resp, info: info, err: err}
	}()
	select {
	case o := <-ch:
		if o.err != nil && actx.Err() != nil && !errors.Is(o.err, actx.Err()) {
			o.err = fmt.Errorf("%w: %w", actx.Err(), o.err)
		}
		return o
	case <-actx.Done():
		return outcome{err: actx.Err()}
	}
}
