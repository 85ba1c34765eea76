package llm

import (
	"github.com/pkoukk/tiktoken-go"
	"go.uber.org/zap"

	"github.com/cozelabs/agentgraph/types"
)

// historyTrimmer drops the oldest conversation messages until the history
// fits a token budget. The most recent user message is always kept.
type historyTrimmer struct {
	limit   int
	encoder *tiktoken.Tiktoken
	logger  *zap.Logger
}

func newHistoryTrimmer(limit int, logger *zap.Logger) *historyTrimmer {
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Offline environments cannot fetch the encoding; fall back to
		// rune-count estimation rather than failing client construction.
		logger.Warn("tiktoken encoding unavailable, using rune estimate", zap.Error(err))
		encoder = nil
	}
	return &historyTrimmer{limit: limit, encoder: encoder, logger: logger}
}

func (t *historyTrimmer) countTokens(text string) int {
	if t.encoder == nil {
		// Rough estimate: one token per 4 characters.
		return len([]rune(text))/4 + 1
	}
	return len(t.encoder.Encode(text, nil, nil))
}

func (t *historyTrimmer) trim(messages []types.Message) []types.Message {
	if len(messages) == 0 {
		return messages
	}

	total := 0
	counts := make([]int, len(messages))
	for i, m := range messages {
		counts[i] = t.countTokens(m.Content)
		total += counts[i]
	}
	if total <= t.limit {
		return messages
	}

	// Drop from the front, keeping at least the final message.
	start := 0
	for start < len(messages)-1 && total > t.limit {
		total -= counts[start]
		start++
	}
	t.logger.Debug("trimmed conversation history",
		zap.Int("dropped", start),
		zap.Int("kept", len(messages)-start),
	)
	return messages[start:]
}
