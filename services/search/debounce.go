package search

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultDebounceDelay is the quiescence window before a query change
	// triggers a search.
	DefaultDebounceDelay = 250 * time.Millisecond

	// MinQueryLength is the shortest query that triggers a search. Shorter
	// non-empty input does nothing and leaves prior results visible.
	MinQueryLength = 2
)

// Debouncer delays propagating query changes until input quiesces, then
// invokes the search callback once per distinct settled value. Settling back
// to the value already acted upon is suppressed, so intermediate keystrokes
// that debounce to an unchanged net query cause no duplicate fetch.
type Debouncer struct {
	delay     time.Duration
	minLength int
	onSearch  func(query string)
	onClear   func()

	mu        sync.Mutex
	timer     *time.Timer
	lastActed string
}

// NewDebouncer creates a debouncer. onSearch receives the trimmed settled
// query; onClear fires when input is reduced to zero length (distinct from
// "too short", which is a no-op).
func NewDebouncer(delay time.Duration, onSearch func(query string), onClear func()) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounceDelay
	}
	return &Debouncer{
		delay:     delay,
		minLength: MinQueryLength,
		onSearch:  onSearch,
		onClear:   onClear,
	}
}

// Update feeds the latest input text. Any pending trigger is superseded.
func (d *Debouncer) Update(text string) {
	trimmed := strings.TrimSpace(text)

	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}

	if trimmed == "" {
		d.lastActed = ""
		d.mu.Unlock()
		if d.onClear != nil {
			d.onClear()
		}
		return
	}
	if len([]rune(trimmed)) < d.minLength {
		d.mu.Unlock()
		return
	}

	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(trimmed)
	})
	d.mu.Unlock()
}

// Stop cancels any pending trigger.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

// Flush triggers any pending query immediately. Used when the caller needs a
// settled state right now (e.g. a synchronous search endpoint).
func (d *Debouncer) Flush(text string) {
	d.Stop()
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		d.mu.Lock()
		d.lastActed = ""
		d.mu.Unlock()
		if d.onClear != nil {
			d.onClear()
		}
		return
	}
	if len([]rune(trimmed)) < d.minLength {
		return
	}
	d.fire(trimmed)
}

func (d *Debouncer) fire(query string) {
	d.mu.Lock()
	if query == d.lastActed {
		d.mu.Unlock()
		return
	}
	d.lastActed = query
	d.mu.Unlock()

	if d.onSearch != nil {
		d.onSearch(query)
	}
}
