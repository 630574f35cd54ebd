package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

// scriptedClient returns one scripted result per call, in order.
type scriptedClient struct {
	calls   int
	answers []string
	errs    []error
}

func (c *scriptedClient) Complete(_ context.Context, _ string) (string, error) {
	i := c.calls
	c.calls++
	if i >= len(c.errs) {
		i = len(c.errs) - 1
	}
	return c.answers[i], c.errs[i]
}

func testPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 10 * time.Millisecond, Multiplier: 2}
}

func TestService_Generate_Success(t *testing.T) {
	client := &scriptedClient{answers: []string{"**Jawaban** model"}, errs: []error{nil}}
	svc := NewService(client, testPolicy(), zaptest.NewLogger(t))

	answer := svc.Generate(context.Background(), "prompt")
	assert.Equal(t, "Jawaban model", answer, "answers are normalized")
	assert.Equal(t, 1, client.calls)
}

func TestService_Generate_RateLimitThenSuccess(t *testing.T) {
	rateLimited := &APIError{StatusCode: 429, Status: "RESOURCE_EXHAUSTED"}
	client := &scriptedClient{
		answers: []string{"", "", "jawaban akhirnya"},
		errs:    []error{rateLimited, rateLimited, nil},
	}
	svc := NewService(client, testPolicy(), zaptest.NewLogger(t))

	start := time.Now()
	answer := svc.Generate(context.Background(), "prompt")
	elapsed := time.Since(start)

	assert.Equal(t, "jawaban akhirnya", answer)
	assert.Equal(t, 3, client.calls)
	// Two backoffs: base then base*multiplier.
	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
}

func TestService_Generate_RateLimitExhaustion(t *testing.T) {
	rateLimited := &APIError{StatusCode: 429}
	client := &scriptedClient{
		answers: []string{"", "", ""},
		errs:    []error{rateLimited, rateLimited, rateLimited},
	}
	svc := NewService(client, testPolicy(), zaptest.NewLogger(t))

	answer := svc.Generate(context.Background(), "prompt")
	assert.Equal(t, ApologyBusy, answer)
	assert.Equal(t, 3, client.calls)
}

func TestService_Generate_OtherErrorRetriedOnce(t *testing.T) {
	t.Run("second attempt succeeds", func(t *testing.T) {
		client := &scriptedClient{
			answers: []string{"", "jawaban"},
			errs:    []error{errors.New("connection reset"), nil},
		}
		svc := NewService(client, testPolicy(), zaptest.NewLogger(t))

		assert.Equal(t, "jawaban", svc.Generate(context.Background(), "prompt"))
		assert.Equal(t, 2, client.calls)
	})

	t.Run("second failure ends with the apology", func(t *testing.T) {
		client := &scriptedClient{
			answers: []string{"", ""},
			errs:    []error{errors.New("connection reset"), errors.New("connection reset")},
		}
		svc := NewService(client, testPolicy(), zaptest.NewLogger(t))

		assert.Equal(t, ApologyError, svc.Generate(context.Background(), "prompt"))
		assert.Equal(t, 2, client.calls, "non-rate-limit errors only get one retry")
	})
}

func TestService_Generate_CancelledDuringBackoff(t *testing.T) {
	client := &scriptedClient{
		answers: []string{""},
		errs:    []error{&APIError{StatusCode: 429}},
	}
	policy := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Minute, Multiplier: 2}
	svc := NewService(client, policy, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, ApologyBusy, svc.Generate(ctx, "prompt"))
	assert.Equal(t, 1, client.calls)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"strips emphasis runs", "**penting** dan *juga* ini", "penting dan juga ini"},
		{"converts bullets", "• satu\n• dua", "- satu\n- dua"},
		{"trims whitespace", "  jawaban \n", "jawaban"},
		{"plain text untouched", "jawaban biasa", "jawaban biasa"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}
