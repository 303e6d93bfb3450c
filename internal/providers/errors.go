package providers

import (
	"context"
	"errors"
	"strings"
)

type ErrorType string

const (
	ErrorQuota       ErrorType = "quota"
	ErrorRate        ErrorType = "rate"
	ErrorTransient   ErrorType = "transient"
	ErrorPermanent   ErrorType = "permanent"
	ErrorContext     ErrorType = "context"
	ErrorTimeout     ErrorType = "timeout"
	ErrorEmpty       ErrorType = "empty"
	ErrorCredentials ErrorType = "credentials"
)

func ClassifyError(err error) ErrorType {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorTimeout
	case errors.Is(err, ErrEmptyResponse):
		return ErrorEmpty
	case errors.Is(err, ErrMissingCredentials):
		return ErrorCredentials
	}
	e := strings.ToLower(err.Error())
	switch {
	case strings.Contains(e, "quota"), strings.Contains(e, "credit"), strings.Contains(e, "insufficient_quota"):
		return ErrorQuota
	case strings.Contains(e, "rate limit"), strings.Contains(e, "rate_limit"), strings.Contains(e, "429"):
		return ErrorRate
	case strings.Contains(e, "context length"), strings.Contains(e, "too long"):
		return ErrorContext
	case strings.Contains(e, "timeout"), strings.Contains(e, "temporarily"), strings.Contains(e, "unavailable"),
		strings.Contains(e, "502"), strings.Contains(e, "503"):
		return ErrorTransient
	default:
		return ErrorPermanent
	}
}
