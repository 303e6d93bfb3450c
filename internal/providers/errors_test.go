package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassifyError(t *testing.T) {
	cases := map[string]ErrorType{
		"insufficient_quota":         ErrorQuota,
		"429 rate":                   ErrorRate,
		"context length exceeded":    ErrorContext,
		"prompt too long":            ErrorContext,
		"timeout":                    ErrorTransient,
		"groq generate error 503: x": ErrorTransient,
		"bad request":                ErrorPermanent,
	}
	for msg, want := range cases {
		if got := ClassifyError(errors.New(msg)); got != want {
			t.Fatalf("classify %q: got %s want %s", msg, got, want)
		}
	}
}

func TestClassifySentinels(t *testing.T) {
	cases := map[error]ErrorType{
		fmt.Errorf("attempt: %w", context.DeadlineExceeded): ErrorTimeout,
		fmt.Errorf("groq: %w", ErrEmptyResponse):            ErrorEmpty,
		fmt.Errorf("gemini: %w", ErrMissingCredentials):     ErrorCredentials,
	}
	for err, want := range cases {
		if got := ClassifyError(err); got != want {
			t.Fatalf("classify %v: got %s want %s", err, got, want)
		}
	}
	if got := ClassifyError(nil); got != "" {
		t.Fatalf("nil error classified as %s", got)
	}
}
