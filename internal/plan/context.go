package plan

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/qerr"
	"github.com/gitrdm/svql/internal/table"
)

// slot is a single-set-then-read publication point for one node's result
// table (§3 "Execution context", §5 ordering guarantees). executing is
// the CAS gate: the goroutine that flips it false->true owns execution
// and is responsible for closing done; every other caller blocks on done.
type slot struct {
	executing atomic.Bool
	done      chan struct{}
	value     table.AnyTable
	err       error
}

func newSlot() *slot { return &slot{done: make(chan struct{})} }

// Context is the execution context shared by every node in one plan run
// (§3 "Execution context"): the driver, the haystack design (loaded and
// cached once), the resolved Config, and one slot per node. Mirrors the
// double-checked-locking cache discipline of
// internal/netlist/fixture.Driver.GetDesign, applied here to per-node
// result tables instead of loaded designs.
type Context struct {
	Std         context.Context
	Driver      netlist.Driver
	HaystackKey netlist.DesignKey
	Config      Config
	Log         *zap.Logger

	haystackOnce sync.Once
	haystack     *netlist.DesignContainer
	haystackErr  error

	mu    sync.RWMutex
	slots map[table.TypeId]*slot
}

// NewContext builds an execution context for one plan run.
func NewContext(std context.Context, driver netlist.Driver, haystackKey netlist.DesignKey, cfg Config, log *zap.Logger) *Context {
	if log == nil {
		log = zap.NewNop()
	}
	return &Context{
		Std:         std,
		Driver:      driver,
		HaystackKey: haystackKey,
		Config:      cfg,
		Log:         log,
		slots:       make(map[table.TypeId]*slot),
	}
}

// Haystack loads and caches the haystack design on first access; every
// subsequent caller (and every node) shares the same *DesignContainer.
func (c *Context) Haystack() (*netlist.DesignContainer, error) {
	c.haystackOnce.Do(func() {
		c.haystack, c.haystackErr = c.Driver.GetDesign(c.Std, c.HaystackKey, c.Config.HaystackOptions)
		if c.haystackErr != nil {
			c.haystackErr = &qerr.DesignLoadError{File: c.HaystackKey.File, Module: c.HaystackKey.Module, Err: c.haystackErr}
		}
	})
	return c.haystack, c.haystackErr
}

func (c *Context) slotFor(id table.TypeId) *slot {
	c.mu.RLock()
	s, ok := c.slots[id]
	c.mu.RUnlock()
	if ok {
		return s
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok = c.slots[id]; ok {
		return s
	}
	s = newSlot()
	c.slots[id] = s
	return s
}

// Get implements selector.Registry: it returns a node's published table,
// or (nil, false) if that node has not executed (or does not exist) in
// this plan run yet. Composite/variant/recursive search functions only
// call Get for nodes the plan guarantees already ran (their own
// dependencies), so this never races a genuine producer.
func (c *Context) Get(id table.TypeId) (table.AnyTable, bool) {
	s := c.slotFor(id)
	select {
	case <-s.done:
		return s.value, s.err == nil && s.value != nil
	default:
		return nil, false
	}
}

// Tables snapshots every node slot that has published successfully,
// keyed by TypeId, for handoff into a Store at plan completion (§4.F "At
// plan completion, clone slot Arcs into a Store").
func (c *Context) Tables() map[table.TypeId]table.AnyTable {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[table.TypeId]table.AnyTable, len(c.slots))
	for id, s := range c.slots {
		select {
		case <-s.done:
			if s.err == nil && s.value != nil {
				out[id] = s.value
			}
		default:
		}
	}
	return out
}

// executeRecursive runs node n's dependencies (each via the same
// CAS-or-wait protocol) and then n's own search function, exactly once
// regardless of how many callers race to execute it (§5 "each node
// executes at most once... enforced by an atomic CAS"). Used by both
// runSequential (a single top-level call covers the whole DAG, since
// plan nodes are exactly root's transitive dependencies) and runParallel
// (one call per node, launched concurrently; CAS resolves the races).
func (c *Context) executeRecursive(n ExecInfo) error {
	s := c.slotFor(n.TypeID)
	if s.executing.CompareAndSwap(false, true) {
		for _, dep := range n.Deps {
			if err := c.executeRecursive(dep); err != nil {
				s.err = fmt.Errorf("plan: dependency %s failed: %w", dep.TypeID, err)
				close(s.done)
				return s.err
			}
		}
		s.value, s.err = n.Search(c)
		close(s.done)
		return s.err
	}
	<-s.done
	return s.err
}
