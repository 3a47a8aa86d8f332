package usecases

import (
	"fmt"

	"github.com/samirrijal/flyover/internal/core/domain"
)

// WidenPolicy holds the result-count thresholds that trigger widening.
type WidenPolicy struct {
	// NoResultsBelow widens when fewer results than this come back.
	NoResultsBelow int
	// FewResultsBelow widens when fewer results than this come back and a
	// broader tier remains.
	FewResultsBelow int
}

// DefaultWidenPolicy widens on zero results or fewer than three.
func DefaultWidenPolicy() WidenPolicy {
	return WidenPolicy{NoResultsBelow: 1, FewResultsBelow: 3}
}

// Validate checks the thresholds.
func (p WidenPolicy) Validate() error {
	if p.NoResultsBelow < 0 || p.FewResultsBelow < p.NoResultsBelow {
		return fmt.Errorf("widen policy: need 0 <= no_results_below <= few_results_below, got %d and %d",
			p.NoResultsBelow, p.FewResultsBelow)
	}
	return nil
}

// WidenReason explains why a search moved to a broader tier.
type WidenReason string

const (
	WidenNoResults  WidenReason = "no_results"
	WidenFewResults WidenReason = "few_results"
)

// SearchToken identifies one search session. Results carrying an older token
// are stale.
type SearchToken uint64

// SearchRequest is one scoped lookup the widener wants issued.
type SearchRequest struct {
	Token SearchToken
	Query string
	Tier  int
	Scope domain.SearchTier
}

// SearchOutcome is the terminal state of a search session.
type SearchOutcome struct {
	Token   SearchToken
	Query   string
	Tier    int
	Places  []domain.Place
	Err     error
	Widened []WidenReason
}

type searchSession struct {
	token   SearchToken
	query   string
	tier    int
	widened []WidenReason
}

// SearchWidener retries a lookup at progressively broader tiers until enough
// results come back or the tiers run out. It is not safe for concurrent use
// and must only be called from the owning session loop.
type SearchWidener struct {
	tiers  domain.SearchTiers
	policy WidenPolicy
	issue  func(SearchRequest)
	done   func(SearchOutcome)

	next   SearchToken
	active *searchSession
}

// NewSearchWidener creates a widener. issue performs the lookup for a request
// and must eventually call OnResults with its token; done receives every
// terminal outcome.
func NewSearchWidener(tiers domain.SearchTiers, policy WidenPolicy, issue func(SearchRequest), done func(SearchOutcome)) (*SearchWidener, error) {
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &SearchWidener{tiers: tiers, policy: policy, issue: issue, done: done}, nil
}

// Submit starts a search at the first tier, superseding any in-flight session.
func (w *SearchWidener) Submit(query string) SearchToken {
	w.next++
	w.active = &searchSession{token: w.next, query: query}
	w.issueCurrent()
	return w.next
}

// OnResults handles the lookup response for token. It returns false when the
// response was stale and was dropped.
func (w *SearchWidener) OnResults(token SearchToken, places []domain.Place, err error) bool {
	s := w.active
	if s == nil || s.token != token {
		return false
	}

	if err != nil {
		w.finish(SearchOutcome{Err: err})
		return true
	}

	last := s.tier == len(w.tiers)-1
	if last {
		w.finish(SearchOutcome{Places: places})
		return true
	}

	switch n := len(places); {
	case n < w.policy.NoResultsBelow:
		w.widen(WidenNoResults)
	case n < w.policy.FewResultsBelow:
		w.widen(WidenFewResults)
	default:
		w.finish(SearchOutcome{Places: places})
	}
	return true
}

// Cancel drops the in-flight session; its late results will be ignored.
func (w *SearchWidener) Cancel() {
	w.active = nil
}

// Active reports whether a session is waiting on a lookup.
func (w *SearchWidener) Active() bool { return w.active != nil }

// Tier returns the tier index of the in-flight session, or -1.
func (w *SearchWidener) Tier() int {
	if w.active == nil {
		return -1
	}
	return w.active.tier
}

// Tiers returns the widening ladder.
func (w *SearchWidener) Tiers() domain.SearchTiers { return w.tiers }

func (w *SearchWidener) widen(reason WidenReason) {
	w.active.tier++
	w.active.widened = append(w.active.widened, reason)
	w.issueCurrent()
}

func (w *SearchWidener) issueCurrent() {
	s := w.active
	w.issue(SearchRequest{
		Token: s.token,
		Query: s.query,
		Tier:  s.tier,
		Scope: w.tiers[s.tier],
	})
}

func (w *SearchWidener) finish(out SearchOutcome) {
	s := w.active
	w.active = nil
	out.Token = s.token
	out.Query = s.query
	out.Tier = s.tier
	out.Widened = s.widened
	if w.done != nil {
		w.done(out)
	}
}
