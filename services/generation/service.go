package generation

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Apology texts returned when every attempt is exhausted. The pipeline
// never surfaces a raw failure to the end user.
const (
	ApologyBusy  = "Maaf, sistem sedang sibuk karena banyak permintaan. Silakan tunggu beberapa saat dan coba lagi."
	ApologyError = "Maaf, terjadi kesalahan teknis. Silakan coba lagi nanti."
)

// Client performs a single language-model call.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service wraps a Client with retry/backoff and response normalization.
type Service struct {
	client Client
	policy RetryPolicy
	logger *zap.Logger
}

// NewService creates a generator service.
func NewService(client Client, policy RetryPolicy, logger *zap.Logger) *Service {
	return &Service{client: client, policy: policy, logger: logger}
}

// Generate calls the model, retrying rate-limit errors with exponential
// backoff up to MaxAttempts total attempts and any other error once
// after the base delay. Exhaustion yields a fixed apology string; this
// method never returns an error to its caller.
func (s *Service) Generate(ctx context.Context, prompt string) string {
	var lastErr error

	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		answer, err := s.client.Complete(ctx, prompt)
		if err == nil {
			return Normalize(answer)
		}
		lastErr = err

		if IsRateLimit(err) {
			if attempt == s.policy.MaxAttempts-1 {
				break
			}
			delay := s.policy.Delay(attempt)
			s.logger.Warn("rate limited, backing off",
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", s.policy.MaxAttempts))
			if sleepContext(ctx, delay) != nil {
				s.logger.Warn("generation cancelled during backoff", zap.Error(ctx.Err()))
				return ApologyBusy
			}
			continue
		}

		// Non-rate-limit errors get a single retry after the base delay.
		if attempt > 0 {
			break
		}
		s.logger.Warn("generation call failed, retrying once",
			zap.Duration("delay", s.policy.BaseDelay),
			zap.Error(err))
		if sleepContext(ctx, s.policy.BaseDelay) != nil {
			s.logger.Warn("generation cancelled during retry delay", zap.Error(ctx.Err()))
			return ApologyError
		}
	}

	if lastErr != nil && IsRateLimit(lastErr) {
		s.logger.Error("generation exhausted after rate limits", zap.Error(lastErr))
		return ApologyBusy
	}
	s.logger.Error("generation exhausted", zap.Error(lastErr))
	return ApologyError
}

var markupRuns = regexp.MustCompile(`\*+`)

// Normalize strips markup artifacts the model tends to emit despite the
// prompt rules: asterisk emphasis runs and bullet characters.
func Normalize(answer string) string {
	answer = markupRuns.ReplaceAllString(answer, "")
	answer = strings.ReplaceAll(answer, "•", "-")
	return strings.TrimSpace(answer)
}
