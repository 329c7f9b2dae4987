// Package tokens estimates the token footprint of the conversation context
// sent upstream on each submission. The estimate is reported through logs
// and session snapshots; the log itself is never truncated here — any
// context budget is the response-generation collaborator's policy.
package tokens

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/serenemind/sessiond/internal/domain"
)

// Per-message structural overhead for chat-format contexts: three tokens of
// message framing plus one for the role.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
)

// Estimator counts tokens with a lazily initialized cl100k_base codec.
type Estimator struct {
	once  sync.Once
	codec tokenizer.Codec
	err   error
}

// NewEstimator creates an estimator. The codec is loaded on first use.
func NewEstimator() *Estimator {
	return &Estimator{}
}

func (e *Estimator) getCodec() (tokenizer.Codec, error) {
	e.once.Do(func() {
		e.codec, e.err = tokenizer.Get(tokenizer.Cl100kBase)
	})
	if e.err != nil {
		return nil, fmt.Errorf("failed to load tokenizer encoding: %w", e.err)
	}
	return e.codec, nil
}

// CountText counts the tokens in a plain string.
func (e *Estimator) CountText(text string) (int, error) {
	codec, err := e.getCodec()
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CountContext estimates the tokens consumed by an ordered context slice,
// including per-message framing overhead.
func (e *Estimator) CountContext(messages []domain.ContextMessage) (int, error) {
	codec, err := e.getCodec()
	if err != nil {
		return 0, err
	}

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + tokensPerRole
		ids, _, err := codec.Encode(msg.Content)
		if err != nil {
			return 0, err
		}
		total += len(ids)
	}
	return total, nil
}
