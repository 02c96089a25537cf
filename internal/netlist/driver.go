package netlist

import "context"

// DesignKey identifies one loadable design: a file path and the module
// within it to elaborate. It is the cache key the Driver keys its loaded
// designs on.
type DesignKey struct {
	File   string
	Module string
}

func (k DesignKey) String() string { return k.File + ":" + k.Module }

// Options is passed opaquely to the loader; this module never interprets
// its contents (HDL elaboration is out of scope).
type Options map[string]any

// DesignContainer bundles an immutable graph with its Index. It is the
// unit of sharing between concurrent searches against the same design.
type DesignContainer struct {
	Key   DesignKey
	Raw   RawNetlist
	Index *Index
}

// NewDesignContainer indexes raw and wraps it with its key.
func NewDesignContainer(key DesignKey, raw RawNetlist) *DesignContainer {
	return &DesignContainer{Key: key, Raw: raw, Index: Build(raw)}
}

// Driver is the external collaborator that loads netlist designs from
// (file, module) pairs and caches them. A module importer keyed by
// (file, module), as described in spec.md §1/§6; this package never
// implements a real loader, only the interface and (in ./fixture) a test
// double standing in for one.
type Driver interface {
	// GetDesign loads (or returns the cached) design for key. It may
	// block on first load.
	GetDesign(ctx context.Context, key DesignKey, opts Options) (*DesignContainer, error)

	// PreloadDesign warms the cache for key without returning the result,
	// for prefetch scenarios.
	PreloadDesign(ctx context.Context, key DesignKey, opts Options) error
}
