package resilience

import (
	"strings"
	"time"
)

// OperationKind groups executor operations ("ollama.embed", "qdrant.search",
// "openai.chat", ...) so that retry budgets follow the cost of the call.
type OperationKind string

const (
	KindEmbed   OperationKind = "embed"
	KindSearch  OperationKind = "search"
	KindCaption OperationKind = "caption"
	KindAnswer  OperationKind = "answer"
	KindRespond OperationKind = "respond"
	KindOther   OperationKind = "other"
)

// KindOf derives the kind from the part after the last dot of an operation name.
func KindOf(operation string) OperationKind {
	name := strings.ToLower(operation)
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	switch {
	case strings.HasPrefix(name, "embed"):
		return KindEmbed
	case strings.HasPrefix(name, "search"):
		return KindSearch
	case strings.HasPrefix(name, "caption"):
		return KindCaption
	case name == "chat", strings.HasPrefix(name, "answer"), strings.HasPrefix(name, "generate"):
		return KindAnswer
	case strings.HasPrefix(name, "respond"):
		return KindRespond
	default:
		return KindOther
	}
}

type Config struct {
	// RetryMaxAttempts applies to kinds without an entry in RetryAttempts.
	RetryMaxAttempts    int
	RetryAttempts       map[OperationKind]int
	RetryInitialBackoff time.Duration
	RetryMaxBackoff     time.Duration
	RetryMultiplier     float64

	BreakerEnabled          bool
	BreakerMinRequests      uint32
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls uint32
}

// DefaultRetryAttempts keeps a degraded route fast: embeddings and index
// lookups are cheap to repeat, a vision generation is not.
func DefaultRetryAttempts() map[OperationKind]int {
	return map[OperationKind]int{
		KindEmbed:   3,
		KindSearch:  2,
		KindCaption: 2,
		KindAnswer:  1,
		KindRespond: 3,
	}
}

func DefaultConfig() Config {
	return Config{
		RetryMaxAttempts:    3,
		RetryAttempts:       DefaultRetryAttempts(),
		RetryInitialBackoff: 100 * time.Millisecond,
		RetryMaxBackoff:     400 * time.Millisecond,
		RetryMultiplier:     2.0,

		BreakerEnabled:          true,
		BreakerMinRequests:      10,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      30 * time.Second,
		BreakerHalfOpenMaxCalls: 2,
	}
}

// AttemptsFor returns the retry budget of operation, at least 1.
func (c Config) AttemptsFor(operation string) int {
	if n, ok := c.RetryAttempts[KindOf(operation)]; ok && n > 0 {
		return n
	}
	if c.RetryMaxAttempts > 0 {
		return c.RetryMaxAttempts
	}
	return 1
}

func (c Config) normalize() Config {
	out := c
	def := DefaultConfig()

	if out.RetryMaxAttempts <= 0 {
		out.RetryMaxAttempts = def.RetryMaxAttempts
	}
	attempts := make(map[OperationKind]int, len(out.RetryAttempts))
	for kind, n := range out.RetryAttempts {
		if n > 0 {
			attempts[kind] = n
		}
	}
	out.RetryAttempts = attempts

	if out.RetryInitialBackoff <= 0 {
		out.RetryInitialBackoff = def.RetryInitialBackoff
	}
	if out.RetryMaxBackoff <= 0 {
		out.RetryMaxBackoff = def.RetryMaxBackoff
	}
	if out.RetryMaxBackoff < out.RetryInitialBackoff {
		out.RetryMaxBackoff = out.RetryInitialBackoff
	}
	if out.RetryMultiplier < 1.0 {
		out.RetryMultiplier = def.RetryMultiplier
	}

	if out.BreakerMinRequests == 0 {
		out.BreakerMinRequests = def.BreakerMinRequests
	}
	if out.BreakerFailureRatio <= 0 || out.BreakerFailureRatio > 1 {
		out.BreakerFailureRatio = def.BreakerFailureRatio
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = def.BreakerOpenTimeout
	}
	if out.BreakerHalfOpenMaxCalls == 0 {
		out.BreakerHalfOpenMaxCalls = def.BreakerHalfOpenMaxCalls
	}

	return out
}
