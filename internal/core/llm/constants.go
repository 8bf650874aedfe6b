package llm

import "time"

// Error format strings.
const (
	errFmtRateLimiter = "rate limiter: %w"
	errFmtChatCall    = "chat completion: %w"
	errFmtMessageCall = "message call: %w"
	errFmtGenerate    = "generate content: %w"
)

// Log keys.
const (
	logKeyProvider = "provider"
	logKeyModel    = "model"
	logKeyVendor   = "vendor"
)

// Call defaults.
const (
	defaultCallTimeout     = 120 * time.Second
	defaultMaxTokens       = 4096
	defaultRateLimiterRPS  = 1
	rateLimiterBurst       = 5
	charsPerTokenHeuristic = 4
)
