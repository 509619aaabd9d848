package wizard

import (
	"context"
	"sync"
	"time"
)

// DefaultSearchDebounce is how long typing must pause before a master search runs.
const DefaultSearchDebounce = 300 * time.Millisecond

// Token identifies one scheduled call. Only the most recent token may commit.
type Token uint64

// Debouncer delays work and lets only the latest scheduled call publish a result.
// Scheduling a new call invalidates every earlier token, whether or not its
// timer already fired.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	current Token
	timer   *time.Timer
	wg      sync.WaitGroup
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule runs fn after the delay with a fresh token and returns that token.
func (d *Debouncer) Schedule(fn func(tok Token)) Token {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.current++
	tok := d.current
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		fn(tok)
	})
	return tok
}

// Current returns the token that is still allowed to commit.
func (d *Debouncer) Current() Token {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Commit runs apply only if tok is still current, and reports whether it ran.
// apply runs under the debouncer's lock so a concurrent Schedule cannot
// interleave with it.
func (d *Debouncer) Commit(tok Token, apply func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if tok != d.current {
		return false
	}
	apply()
	return true
}

// Cancel invalidates the outstanding token and stops its timer if it has not fired.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.current++
}

// Wait blocks until every callback that was started has returned.
func (d *Debouncer) Wait() {
	d.wg.Wait()
}

func (d *Debouncer) stopLocked() {
	if d.timer == nil {
		return
	}
	if d.timer.Stop() {
		d.wg.Done()
	}
	d.timer = nil
}

// LiveMasterSearch is the debounced search behind the secondary-option step.
type LiveMasterSearch struct {
	search *MasterSearch
	deb    *Debouncer
}

func NewLiveMasterSearch(search *MasterSearch, delay time.Duration) *LiveMasterSearch {
	if delay <= 0 {
		delay = DefaultSearchDebounce
	}
	return &LiveMasterSearch{search: search, deb: NewDebouncer(delay)}
}

// Type records a keystroke. After the debounce the search runs and, if no
// newer keystroke arrived meanwhile, commit receives its result. Stale results
// are discarded silently. An empty query commits an empty result.
func (l *LiveMasterSearch) Type(ctx context.Context, query string, commit func([]MasterCandidate, error)) Token {
	return l.deb.Schedule(func(tok Token) {
		if l.deb.Current() != tok {
			return
		}
		var (
			res []MasterCandidate
			err error
		)
		if query == "" {
			res = []MasterCandidate{}
		} else {
			res, err = l.search.Find(ctx, query)
		}
		l.deb.Commit(tok, func() { commit(res, err) })
	})
}

// Stop discards any pending search and waits for running ones to finish.
func (l *LiveMasterSearch) Stop() {
	l.deb.Cancel()
	l.deb.Wait()
}
