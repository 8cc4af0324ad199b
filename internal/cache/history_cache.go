package cache

import (
	"sync"

	"github.com/quantpulse/optionsengine/internal/models"
)

// HistoryCache keeps a bounded, per-symbol window of market snapshots in
// memory. A single scanner goroutine appends; any number of readers take
// snapshot copies. The cache owns its slices: readers always get copies,
// never aliases.
type HistoryCache struct {
	mu      sync.RWMutex
	cap     int
	history map[string][]models.MarketSnapshot
}

// NewHistoryCache creates a cache that retains at most cap snapshots per
// symbol, evicting the oldest. A non-positive cap falls back to 200.
func NewHistoryCache(cap int) *HistoryCache {
	if cap <= 0 {
		cap = 200
	}
	return &HistoryCache{
		cap:     cap,
		history: make(map[string][]models.MarketSnapshot),
	}
}

// Append records a snapshot for its symbol, evicting the oldest entry
// once the window is full.
func (c *HistoryCache) Append(snap models.MarketSnapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	window := c.history[snap.Symbol]
	if len(window) >= c.cap {
		// Shift in place; the window length never exceeds cap so this
		// stays a small fixed-size copy.
		copy(window, window[1:])
		window[len(window)-1] = snap
	} else {
		window = append(window, snap)
	}
	c.history[snap.Symbol] = window
	return nil
}

// Snapshot returns a copy of the symbol's history, oldest first. Unknown
// symbols return an empty slice, not nil-panics downstream.
func (c *HistoryCache) Snapshot(symbol string) []models.MarketSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	window := c.history[symbol]
	out := make([]models.MarketSnapshot, len(window))
	copy(out, window)
	return out
}

// Prices returns just the close prices for a symbol, oldest first.
func (c *HistoryCache) Prices(symbol string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	window := c.history[symbol]
	out := make([]float64, len(window))
	for i := range window {
		out[i] = window[i].PriceF()
	}
	return out
}

// Volumes returns just the volumes for a symbol, oldest first.
func (c *HistoryCache) Volumes(symbol string) []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	window := c.history[symbol]
	out := make([]float64, len(window))
	for i := range window {
		out[i] = window[i].VolumeF()
	}
	return out
}

// Len returns the number of snapshots held for a symbol.
func (c *HistoryCache) Len(symbol string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.history[symbol])
}

// Symbols returns the symbols that have at least one snapshot.
func (c *HistoryCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.history))
	for sym := range c.history {
		out = append(out, sym)
	}
	return out
}
