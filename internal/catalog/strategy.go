package catalog

import (
	"fmt"
	"net/url"
	"strconv"
)

// Strategy is one pagination scheme: a query parameter varied over a value
// sequence, optionally combined with fixed extra parameters (e.g. a sort
// token).
type Strategy struct {
	// Name identifies the strategy in stats and logs.
	Name string
	// Param is the query parameter that carries the page value.
	Param string
	// Values is an explicit value sequence (e.g. offsets "0","32","64").
	// When empty, the sequence is the page indexes "1".."MaxPages".
	Values []string
	// Extra holds fixed query parameters applied to every candidate URL.
	Extra url.Values
	// MaxPages caps the number of candidate pages when Values is empty.
	MaxPages int
	// StopThreshold is the number of consecutive pages yielding zero new
	// products after which the strategy halts.
	StopThreshold int
}

// PageValues expands the strategy's value sequence.
func (s Strategy) PageValues() []string {
	if len(s.Values) > 0 {
		return s.Values
	}
	values := make([]string, 0, s.MaxPages)
	for page := 1; page <= s.MaxPages; page++ {
		values = append(values, strconv.Itoa(page))
	}
	return values
}

// PageURL builds the candidate page address for one value of the sequence.
func (s Strategy) PageURL(base string, value string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}

	q := u.Query()
	for param, vals := range s.Extra {
		for _, v := range vals {
			q.Set(param, v)
		}
	}
	q.Set(s.Param, value)
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// StrategyState is the lifecycle state of one strategy during a crawl.
type StrategyState string

const (
	StateActive             StrategyState = "active"
	StateStoppedByThreshold StrategyState = "stopped_by_threshold"
	StateStoppedByMaxPages  StrategyState = "stopped_by_max_pages"
)

// paginationState is the per-strategy cursor. It lives for the duration of
// one target crawl and is discarded after the merge.
type paginationState struct {
	strategy         Strategy
	values           []string
	pageIndex        int
	consecutiveEmpty int
	state            StrategyState

	pagesFetched int
	newProducts  int
}

func newPaginationState(s Strategy) *paginationState {
	return &paginationState{
		strategy: s,
		values:   s.PageValues(),
		state:    StateActive,
	}
}

// next returns the next page value to probe, or ok=false once the strategy
// has stopped.
func (st *paginationState) next() (string, bool) {
	if st.state != StateActive {
		return "", false
	}
	if st.pageIndex >= len(st.values) {
		st.state = StateStoppedByMaxPages
		return "", false
	}
	value := st.values[st.pageIndex]
	st.pageIndex++
	return value, true
}

// observe records the outcome of one probed page and updates the state
// machine. A page with zero new products counts toward the stop threshold;
// any new product resets the counter.
func (st *paginationState) observe(newCount int) {
	st.pagesFetched++
	st.newProducts += newCount

	if newCount > 0 {
		st.consecutiveEmpty = 0
		return
	}

	st.consecutiveEmpty++
	threshold := st.strategy.StopThreshold
	if threshold <= 0 {
		threshold = 1
	}
	if st.consecutiveEmpty >= threshold {
		st.state = StateStoppedByThreshold
	}
}

func (st *paginationState) stats() StrategyStats {
	state := st.state
	if state == StateActive {
		// The value sequence ran out without tripping the threshold.
		state = StateStoppedByMaxPages
	}
	return StrategyStats{
		Strategy:     st.strategy.Name,
		PagesFetched: st.pagesFetched,
		NewProducts:  st.newProducts,
		State:        state,
	}
}
