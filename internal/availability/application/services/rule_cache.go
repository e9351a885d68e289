package services

import (
	"fmt"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/teambition/rrule-go"
)

type parsedRule struct {
	opt rrule.ROption
	err error
}

// CachedRuleParser memoises rule parsing, including failures, in a bounded
// LRU keyed by the raw rule text. Returned options share their slices with
// the cache and must not be modified.
type CachedRuleParser struct {
	next    availabilityDomain.RuleParser
	cache   *lru.Cache[string, parsedRule]
	metrics observability.Metrics
}

// NewCachedRuleParser wraps next. A nil next uses the default parser.
func NewCachedRuleParser(next availabilityDomain.RuleParser, size int, metrics observability.Metrics) (*CachedRuleParser, error) {
	if next == nil {
		next = availabilityDomain.DefaultRuleParser
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	cache, err := lru.New[string, parsedRule](size)
	if err != nil {
		return nil, fmt.Errorf("create rule cache: %w", err)
	}
	return &CachedRuleParser{next: next, cache: cache, metrics: metrics}, nil
}

// Parse implements availabilityDomain.RuleParser.
func (p *CachedRuleParser) Parse(rule string) (rrule.ROption, error) {
	if hit, ok := p.cache.Get(rule); ok {
		p.metrics.Counter(observability.MetricRuleCacheHits, 1)
		return hit.opt, hit.err
	}
	p.metrics.Counter(observability.MetricRuleCacheMisses, 1)

	opt, err := p.next.Parse(rule)
	p.cache.Add(rule, parsedRule{opt: opt, err: err})
	return opt, err
}

// Len returns the number of cached rules.
func (p *CachedRuleParser) Len() int {
	return p.cache.Len()
}
