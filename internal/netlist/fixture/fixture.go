// Package fixture provides an in-memory netlist.Driver used by tests and
// the example command. It stands in for the (explicitly out-of-scope)
// HDL loader: designs are registered directly as netlist.RawNetlist
// values instead of being parsed from a file.
//
// The cache discipline mirrors the teacher's pldb.go Database: a single
// lock held only around insertion, with reads served from an immutable
// snapshot once a design is loaded (spec.md §5 "Locking discipline").
package fixture

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gitrdm/svql/internal/netlist"
)

// Driver is a netlist.Driver backed by designs registered in-process via
// Register. It is safe for concurrent use.
type Driver struct {
	mu       sync.RWMutex
	registry map[netlist.DesignKey]netlist.RawNetlist
	cache    map[netlist.DesignKey]*netlist.DesignContainer
}

// New creates an empty fixture driver.
func New() *Driver {
	return &Driver{
		registry: make(map[netlist.DesignKey]netlist.RawNetlist),
		cache:    make(map[netlist.DesignKey]*netlist.DesignContainer),
	}
}

// Register makes raw available under key for subsequent GetDesign calls.
// It does not itself build the Index; that happens lazily on first load,
// matching the Driver contract ("may block on first load").
func (d *Driver) Register(key netlist.DesignKey, raw netlist.RawNetlist) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.registry[key] = raw
}

// GetDesign returns the cached container for key, building and caching it
// on first access. opts is accepted for interface compatibility and
// ignored: this fixture has no loader-level options to interpret.
func (d *Driver) GetDesign(_ context.Context, key netlist.DesignKey, _ netlist.Options) (*netlist.DesignContainer, error) {
	d.mu.RLock()
	if c, ok := d.cache[key]; ok {
		d.mu.RUnlock()
		return c, nil
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()
	// Re-check under the write lock: another goroutine may have built it
	// while we waited.
	if c, ok := d.cache[key]; ok {
		return c, nil
	}
	raw, ok := d.registry[key]
	if !ok {
		return nil, fmt.Errorf("fixture: no design registered for %s", key)
	}
	container := netlist.NewDesignContainer(key, raw)
	d.cache[key] = container
	return container, nil
}

// PreloadDesign warms the cache for key.
func (d *Driver) PreloadDesign(ctx context.Context, key netlist.DesignKey, opts netlist.Options) error {
	_, err := d.GetDesign(ctx, key, opts)
	return err
}

// NextID returns a synthetic, process-unique PhysicalCellId for use in
// hand-built fixture netlists. It is backed by a random UUID's low 64
// bits rather than a counter so fixtures built across independent test
// helpers never collide once merged into one design.
func NextID() netlist.PhysicalCellId {
	id := uuid.New()
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(id[i])
	}
	return netlist.PhysicalCellId(v)
}
