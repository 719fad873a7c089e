package tokens

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator counts tokens in a piece of text.
type Estimator interface {
	Count(text string) int
	Name() string
}

// HeuristicEstimator approximates token count as len(text)/4.
// It is the fallback when no real tokenizer is available for the model.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Count(text string) int { return len(text) / 4 }

func (HeuristicEstimator) Name() string { return "heuristic[len/4]" }

// TiktokenEstimator counts tokens with a tiktoken encoding. Gemini does
// not publish a tiktoken encoding, so cl100k_base is used as a close
// approximation; if the encoding cannot be initialized the estimator
// degrades to the len/4 heuristic.
type TiktokenEstimator struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenEstimator creates an estimator backed by the given tiktoken
// encoding ("cl100k_base", "o200k_base", ...).
func NewTiktokenEstimator(encoding string) *TiktokenEstimator {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenEstimator{encoding: encoding}
}

// init lazily initializes the encoding (may download data on first use).
func (t *TiktokenEstimator) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TiktokenEstimator) Count(text string) int {
	if err := t.init(); err != nil {
		return HeuristicEstimator{}.Count(text)
	}
	return len(t.enc.Encode(text, nil, nil))
}

func (t *TiktokenEstimator) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}
