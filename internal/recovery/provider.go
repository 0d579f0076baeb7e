package recovery

import (
	"sync"

	"go.uber.org/zap"

	"github.com/CosmosUIUX/legacy-portfolio-sub000/internal/logging"
)

// Escalation thresholds for the tree-wide strategy suggestion.
const (
	reduceComplexityAfter  = 2
	disableAnimationsAfter = 3
)

// Provider aggregates error counts across every boundary in a component
// tree and escalates the suggested strategy as failures accumulate. The
// suggestion is advisory: boundaries keep their configured strategy, the
// host decides whether to act on the escalation.
type Provider struct {
	mu     sync.Mutex
	total  int
	byType map[ErrorType]int
}

// NewProvider creates an empty escalation provider.
func NewProvider() *Provider {
	return &Provider{
		byType: make(map[ErrorType]int),
	}
}

// RecordError accumulates one caught failure.
func (p *Provider) RecordError(e AnimationError) {
	p.mu.Lock()
	p.total++
	p.byType[e.Type]++
	total := p.total
	p.mu.Unlock()

	if total == reduceComplexityAfter || total == disableAnimationsAfter {
		logging.Get(logging.CategoryRecovery).Warn("animation error threshold crossed",
			zap.Int("total", total),
			zap.String("suggestion", string(p.suggestionFor(total))))
	}
}

// ErrorCount returns the accumulated failure total.
func (p *Provider) ErrorCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total
}

// CountByType returns the accumulated failures of one taxonomy kind.
func (p *Provider) CountByType(t ErrorType) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.byType[t]
}

// Suggestion returns the escalated strategy for the current error
// accumulation. ok is false while the tree is healthy enough that no
// escalation applies.
func (p *Provider) Suggestion() (Strategy, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.total < reduceComplexityAfter {
		return "", false
	}
	return p.suggestionFor(p.total), true
}

func (p *Provider) suggestionFor(total int) Strategy {
	if total >= disableAnimationsAfter {
		return DisableAnimations
	}
	return ReduceComplexity
}

// Reset clears the accumulation, typically after the host applied an
// escalation and wants a fresh window.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = 0
	p.byType = make(map[ErrorType]int)
}
