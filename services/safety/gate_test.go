package safety

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestGate_Check(t *testing.T) {
	gate := NewGate(zaptest.NewLogger(t))

	tests := []struct {
		name     string
		question string
		allowed  bool
	}{
		{
			name:     "in-domain question passes",
			question: "makanan sehat untuk ibu hamil",
			allowed:  true,
		},
		{
			name:     "off-domain question without domain vocabulary is rejected",
			question: "siapa presiden indonesia",
			allowed:  false,
		},
		{
			name:     "deny term wins even with an allow term present",
			question: "apakah ibu hamil boleh main game",
			allowed:  false,
		},
		{
			name:     "matching is case-insensitive",
			question: "Apa VITAMIN yang bagus untuk Trimester kedua?",
			allowed:  true,
		},
		{
			name:     "empty question is rejected",
			question: "",
			allowed:  false,
		},
		{
			name:     "whitespace-only question is rejected",
			question: "   \t  ",
			allowed:  false,
		},
		{
			name:     "no vocabulary at all is rejected",
			question: "apa kabar hari ini",
			allowed:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := gate.Check(tt.question)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestGate_Check_OverlongQuestion(t *testing.T) {
	gate := NewGate(zaptest.NewLogger(t))

	question := "kehamilan " + strings.Repeat("a", maxQuestionLen)
	decision := gate.Check(question)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "question too long", decision.Reason)
}
