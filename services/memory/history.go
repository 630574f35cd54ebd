package memory

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// contextExchanges is how many recent exchanges the prompt context renders.
	contextExchanges = 3

	// contextAnswerRunes truncates answers inside the rendered transcript.
	contextAnswerRunes = 150
)

// Exchange is one question/answer pair in a session's history.
type Exchange struct {
	Question  string
	Answer    string
	Timestamp time.Time
}

// History is a bounded per-session conversation memory. It retains up
// to maxHistory exchanges in insertion order, dropping the oldest.
type History struct {
	mu         sync.Mutex
	exchanges  []Exchange
	maxHistory int
}

// NewHistory creates a History holding at most maxHistory exchanges.
func NewHistory(maxHistory int) *History {
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &History{maxHistory: maxHistory}
}

// Add appends an exchange, evicting the oldest when over capacity.
func (h *History) Add(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = append(h.exchanges, Exchange{
		Question:  question,
		Answer:    answer,
		Timestamp: time.Now(),
	})
	if len(h.exchanges) > h.maxHistory {
		h.exchanges = h.exchanges[len(h.exchanges)-h.maxHistory:]
	}
}

// Exchanges returns a copy of the retained history, oldest first.
func (h *History) Exchanges() []Exchange {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Exchange, len(h.exchanges))
	copy(out, h.exchanges)
	return out
}

// Len returns the number of retained exchanges.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.exchanges)
}

// Clear drops all exchanges.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.exchanges = nil
}

// Context renders the most recent exchanges as a transcript block for
// prompt assembly. Only the last few exchanges appear, with answers
// truncated, even though more are retained for the history API.
func (h *History) Context() string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.exchanges) == 0 {
		return ""
	}

	start := len(h.exchanges) - contextExchanges
	if start < 0 {
		start = 0
	}

	var b strings.Builder
	b.WriteString("\n=== RIWAYAT PERCAKAPAN ===")
	for i, ex := range h.exchanges[start:] {
		answer := ex.Answer
		if runes := []rune(answer); len(runes) > contextAnswerRunes {
			answer = string(runes[:contextAnswerRunes]) + "..."
		}
		fmt.Fprintf(&b, "\nQ%d: %s", i+1, ex.Question)
		fmt.Fprintf(&b, "\nA%d: %s", i+1, answer)
	}
	b.WriteString("\n=== AKHIR RIWAYAT ===\n")
	return b.String()
}
