package resilience

import (
	"context"
	"sync"
	"time"

	"github.com/kbukum/seqkit/errors"
	"github.com/kbukum/seqkit/logger"
)

// State is a circuit breaker position.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// CircuitBreakerConfig configures a circuit breaker.
type CircuitBreakerConfig struct {
	Name string
	// MaxFailures consecutive counted failures open the circuit.
	MaxFailures int
	// Cooldown is how long an open circuit refuses before it lets probes through.
	Cooldown time.Duration
	// HalfOpenMaxCalls probes must all succeed to close the circuit again.
	HalfOpenMaxCalls int
	// Counts picks the errors that count as failures. Defaults to Retryable.
	Counts        func(error) bool
	OnStateChange func(name string, from, to State)
}

// DefaultCircuitBreakerConfig opens after 5 failures and probes once after 30s.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{Name: name, MaxFailures: 5, Cooldown: 30 * time.Second, HalfOpenMaxCalls: 1}
}

// CircuitBreaker refuses to open a source whose endpoint keeps failing.
// Refusals are UNAVAILABLE errors.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	openedAt time.Time
	failures int // consecutive, while closed
	inFlight int // probes admitted, while half-open
	passed   int // probes succeeded, while half-open
}

func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig(cfg.Name)
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = def.Cooldown
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = def.HalfOpenMaxCalls
	}
	if cfg.Counts == nil {
		cfg.Counts = Retryable
	}
	return &CircuitBreaker{cfg: cfg, now: time.Now, state: StateClosed}
}

// Execute calls fn unless the circuit refuses it, and feeds the outcome back.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if !cb.admit() {
		return errors.Unavailable(cb.cfg.Name, "circuit open")
	}
	err := fn(ctx)
	cb.settle(err != nil && cb.cfg.Counts(err))
	return err
}

// Guard wraps fn with cb, keeping its result.
func Guard[T any](cb *CircuitBreaker, fn func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (out T, err error) {
		err = cb.Execute(ctx, func(ctx context.Context) error {
			var ferr error
			out, ferr = fn(ctx)
			return ferr
		})
		return out, err
	}
}

func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cool()
	return cb.state
}

// Failures returns the consecutive failures counted while closed.
func (cb *CircuitBreaker) Failures() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failures
}

// Reset closes the circuit.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.move(StateClosed)
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.cool()
	switch cb.state {
	case StateClosed:
		return true
	case StateHalfOpen:
		if cb.inFlight < cb.cfg.HalfOpenMaxCalls {
			cb.inFlight++
			return true
		}
	}
	return false
}

func (cb *CircuitBreaker) settle(failed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
		} else if cb.failures++; cb.failures >= cb.cfg.MaxFailures {
			cb.move(StateOpen)
		}
	case StateHalfOpen:
		if failed {
			cb.move(StateOpen)
		} else if cb.passed++; cb.passed >= cb.cfg.HalfOpenMaxCalls {
			cb.move(StateClosed)
		}
	}
}

// cool lets an open circuit whose cool-down has elapsed take probes.
func (cb *CircuitBreaker) cool() {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.cfg.Cooldown {
		cb.move(StateHalfOpen)
	}
}

// move must be called with mu held.
func (cb *CircuitBreaker) move(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	cb.inFlight, cb.passed = 0, 0
	switch to {
	case StateOpen:
		cb.openedAt = cb.now()
	case StateClosed:
		cb.failures = 0
	}

	logger.Get("resilience").Info("circuit state changed", logger.Fields(
		logger.FieldComponent, cb.cfg.Name, "from", string(from), "to", string(to),
	))
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.cfg.Name, from, to)
	}
}
