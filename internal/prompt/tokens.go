package prompt

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

type TokenCounter interface {
	Count(s string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(s string) int {
	return len(c.enc.Encode(s, nil, nil))
}

// RuneCounter approximates tokens as a quarter of the rune count.
type RuneCounter struct{}

func (RuneCounter) Count(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// NewTokenCounter returns a cl100k_base counter, or RuneCounter when the
// encoding cannot be loaded (offline hosts without a BPE cache).
func NewTokenCounter() TokenCounter {
	enc, err := tiktoken.GetEncoding(tiktoken.MODEL_CL100K_BASE)
	if err != nil {
		return RuneCounter{}
	}
	return tiktokenCounter{enc: enc}
}
