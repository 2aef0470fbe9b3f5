package client

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Fetcher abstracts the transport so the browser state machine is
// testable without a server. *Client implements it.
type Fetcher interface {
	DayAvailability(ctx context.Context, providerID, date string, serviceIDs []string) (*DayResult, error)
}

// Key identifies one availability query. Date is empty for forward
// scan keys.
type Key struct {
	ProviderID string
	Date       string
	Services   string
}

// MakeKey canonicalizes the query parameters into a cache key.
func MakeKey(providerID, date string, serviceIDs []string) Key {
	return Key{ProviderID: providerID, Date: date, Services: strings.Join(serviceIDs, ",")}
}

// State of the browser's query pipeline.
type State int

const (
	StateIdle     State = iota
	StatePending        // debounce timer running
	StateInFlight       // network request outstanding
)

// Defaults for the browser's tunables.
const (
	DefaultDebounce = 300 * time.Millisecond
	DefaultCacheTTL = 3 * time.Second
	DefaultScanDays = 14
)

type cacheEntry struct {
	result   *DayResult
	storedAt time.Time
}

// Browser shields the service layer from redundant queries while the
// user drives the provider/date pickers. Change events are debounced;
// fresh results are served from a TTL cache; an in-flight request whose
// key is no longer current is cancelled and its response discarded, so
// stale data never reaches the UI callback.
type Browser struct {
	fetcher  Fetcher
	debounce time.Duration
	ttl      time.Duration
	scanDays int
	now      func() time.Time
	onResult func(key Key, res *DayResult, err error)

	mu         sync.Mutex
	state      State
	provider   string
	currentKey Key
	timer      *time.Timer
	cancel     context.CancelFunc

	cache map[Key]cacheEntry

	scanning   bool
	scanCancel context.CancelFunc
	lastScan   Key
	hasScanned bool
}

// BrowserOptions tunes the browser; zero values use defaults. Now is
// the injectable clock for cache freshness.
type BrowserOptions struct {
	Debounce time.Duration
	CacheTTL time.Duration
	ScanDays int
	Now      func() time.Time
}

// NewBrowser creates a browser delivering results through onResult.
// The callback runs on the browser's worker goroutine and is never
// invoked for a key that is no longer current.
func NewBrowser(fetcher Fetcher, opts BrowserOptions, onResult func(Key, *DayResult, error)) *Browser {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = DefaultCacheTTL
	}
	if opts.ScanDays <= 0 {
		opts.ScanDays = DefaultScanDays
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Browser{
		fetcher:  fetcher,
		debounce: opts.Debounce,
		ttl:      opts.CacheTTL,
		scanDays: opts.ScanDays,
		now:      opts.Now,
		onResult: onResult,
		cache:    make(map[Key]cacheEntry),
	}
}

// State returns the current pipeline state.
func (b *Browser) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// SetQuery records a picker change. Rapid changes coalesce: the fetch
// fires only after a full quiet period. Switching provider clears the
// whole cache, since cached keys lose their relevance for the session.
func (b *Browser) SetQuery(providerID, date string, serviceIDs []string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if providerID != b.provider {
		b.cache = make(map[Key]cacheEntry)
		b.hasScanned = false
		b.provider = providerID
	}

	key := MakeKey(providerID, date, serviceIDs)

	// A key change obsoletes any outstanding request.
	if b.cancel != nil && key != b.currentKey {
		b.cancel()
		b.cancel = nil
	}

	b.currentKey = key
	b.state = StatePending
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.debounce, func() { b.fire(key) })
}

// fire runs after the quiet period; key is the query it was armed for.
func (b *Browser) fire(key Key) {
	b.mu.Lock()
	if key != b.currentKey {
		b.mu.Unlock()
		return
	}

	if entry, ok := b.lookupLocked(key); ok {
		b.state = StateIdle
		b.mu.Unlock()
		b.onResult(key, entry, nil)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.state = StateInFlight
	b.mu.Unlock()

	res, err := b.fetcher.DayAvailability(ctx, key.ProviderID, key.Date, splitIDs(key.Services))

	b.mu.Lock()
	if key != b.currentKey || ctx.Err() != nil {
		// Cancelled or superseded: discard, mutate nothing.
		b.mu.Unlock()
		return
	}
	if err == nil {
		b.cache[key] = cacheEntry{result: res, storedAt: b.now()}
	}
	b.state = StateIdle
	b.cancel = nil
	b.mu.Unlock()
	cancel()

	b.onResult(key, res, err)
}

// ScanForward looks for the nearest open day when no explicit date has
// been chosen, querying consecutive days from startDate (YYYY-MM-DD)
// through the cache. A scan already in flight makes the call a no-op,
// as does immediately repeating a completed scan for the same key.
// Reports whether a scan was started.
func (b *Browser) ScanForward(providerID, startDate string, serviceIDs []string) bool {
	b.mu.Lock()
	scanKey := MakeKey(providerID, "", serviceIDs)

	if b.scanning {
		b.mu.Unlock()
		return false
	}
	if b.hasScanned && scanKey == b.lastScan {
		b.mu.Unlock()
		return false
	}
	if providerID != b.provider {
		b.cache = make(map[Key]cacheEntry)
		b.provider = providerID
	}

	b.scanning = true
	ctx, cancel := context.WithCancel(context.Background())
	b.scanCancel = cancel
	b.mu.Unlock()

	go b.runScan(ctx, scanKey, providerID, startDate, serviceIDs)
	return true
}

// CancelScan aborts an in-flight forward scan, if any. Idempotent.
func (b *Browser) CancelScan() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.scanCancel != nil {
		b.scanCancel()
		b.scanCancel = nil
	}
}

func (b *Browser) runScan(ctx context.Context, scanKey Key, providerID, startDate string, serviceIDs []string) {
	key, res, err, deliver := b.scanLoop(ctx, providerID, startDate, serviceIDs)

	// Release the scan state before delivering, so the callback (and
	// anything it wakes) can start the next scan immediately.
	b.mu.Lock()
	b.scanning = false
	// A cancelled scan did not complete; leave the memo unset so it
	// can be retried.
	if ctx.Err() == nil {
		b.lastScan = scanKey
		b.hasScanned = true
	}
	if b.scanCancel != nil {
		b.scanCancel()
		b.scanCancel = nil
	}
	b.mu.Unlock()

	if deliver {
		b.onResult(key, res, err)
	}
}

// scanLoop walks consecutive days and reports the single result to
// deliver: the first open day, the error that stopped the scan, or the
// last (empty) day when the bound is exhausted.
func (b *Browser) scanLoop(ctx context.Context, providerID, startDate string, serviceIDs []string) (Key, *DayResult, error, bool) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		start = b.now()
	}

	var last *DayResult
	for i := 0; i < b.scanDays; i++ {
		if ctx.Err() != nil {
			return Key{}, nil, nil, false
		}
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		dayKey := MakeKey(providerID, date, serviceIDs)

		b.mu.Lock()
		cached, ok := b.lookupLocked(dayKey)
		b.mu.Unlock()

		res := cached
		if !ok {
			res, err = b.fetcher.DayAvailability(ctx, providerID, date, serviceIDs)
			if err != nil {
				if ctx.Err() != nil {
					return Key{}, nil, nil, false
				}
				return dayKey, nil, err, true
			}
			b.mu.Lock()
			b.cache[dayKey] = cacheEntry{result: res, storedAt: b.now()}
			b.mu.Unlock()
		}

		last = res
		if len(res.Slots) > 0 {
			return dayKey, res, nil, true
		}
	}

	// Nothing within the attempt bound: deliver the last (empty) day so
	// the UI can render "no openings".
	if last != nil && ctx.Err() == nil {
		return MakeKey(providerID, last.Date, serviceIDs), last, nil, true
	}
	return Key{}, nil, nil, false
}

// lookupLocked returns a cache entry still within its TTL.
func (b *Browser) lookupLocked(key Key) (*DayResult, bool) {
	entry, ok := b.cache[key]
	if !ok {
		return nil, false
	}
	if b.now().Sub(entry.storedAt) > b.ttl {
		delete(b.cache, key)
		return nil, false
	}
	return entry.result, true
}

func splitIDs(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
