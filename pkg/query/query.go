// Package query implements the public query-execution entry point
// (spec §1, §4.F/§4.G "Query execution"): given a pattern definition and
// a haystack design key, build its execution plan, run it against a
// driver, and hand back both the completed Store and the root pattern's
// rehydrated Go matches.
//
// RunQuery, with its Config alias and Result type, is deliberately the
// only exported surface here: everything it
// wires together (plan.Build, plan.Run, store.New, Def.Rehydrate) is
// already public in its own right, but callers outside this module
// should not need to know the plan/store split exists.
package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gitrdm/svql/internal/netlist"
	"github.com/gitrdm/svql/internal/plan"
	"github.com/gitrdm/svql/internal/qerr"
	"github.com/gitrdm/svql/internal/store"
	"github.com/gitrdm/svql/internal/table"
	"github.com/gitrdm/svql/pkg/pattern"
)

// Config is plan.Config by another name: the single recognized-options
// struct a caller threads into RunQuery (§6 Configuration). It is a type
// alias rather than a wrapper struct so a Config value built here and one
// built for direct internal/plan use are always interchangeable, with no
// field-by-field translation at the package boundary.
type Config = plan.Config

// Result bundles everything one RunQuery call produces: the completed
// Store (for CSV export, report rendering, or resolving Refs the caller
// held onto) and the root pattern's own matches already rehydrated into
// Go values.
type Result[T any] struct {
	Store   *store.Store
	Matches []T
	QueryID string
}

// RunQuery builds p's execution plan, runs it against driver/haystackKey
// under cfg, and rehydrates every row p's own table produced. The
// correlation id assigned to this run (returned in Result.QueryID and
// attached to every log line and wrapped error) lets a caller match a
// failure or a slow query back to one invocation even when many run
// concurrently against the same driver.
func RunQuery[T any](std context.Context, driver netlist.Driver, haystackKey netlist.DesignKey, cfg Config, log *zap.Logger, p pattern.Pattern[T]) (*Result[T], error) {
	if log == nil {
		log = zap.NewNop()
	}
	queryID := uuid.New().String()
	log = log.With(zap.String("query_id", queryID), zap.String("pattern", string(p.TypeID())))

	log.Info("query: starting", zap.String("haystack", haystackKey.String()))

	ctx := plan.NewContext(std, driver, haystackKey, cfg, log)
	exec := p.ExecInfo()
	built := plan.Build(exec)

	if err := plan.Run(ctx, built); err != nil {
		log.Error("query: execution failed", zap.Error(err))
		return nil, qerr.Wrap(queryID, err)
	}

	s := store.New(ctx.Tables())

	at, ok := s.Get(p.TypeID())
	if !ok {
		err := &qerr.MissingDependencyError{Name: string(p.TypeID())}
		log.Error("query: root table never published", zap.Error(err))
		return nil, qerr.Wrap(queryID, err)
	}

	matches, err := rehydrateAll(at, s, p)
	if err != nil {
		log.Error("query: rehydration failed", zap.Error(err))
		return nil, qerr.Wrap(queryID, err)
	}

	log.Info("query: completed", zap.Int("matches", len(matches)), zap.Int("tables", len(ctx.Tables())))

	return &Result[T]{Store: s, Matches: matches, QueryID: queryID}, nil
}

func rehydrateAll[T any](at table.AnyTable, s *store.Store, p pattern.Pattern[T]) ([]T, error) {
	n := at.RowCount()
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		row, ok := at.GetRow(uint32(i))
		if !ok {
			return nil, fmt.Errorf("query: row %d missing from table %s", i, at.TypeID())
		}
		match, ok := p.Rehydrate(row, s)
		if !ok {
			return nil, &qerr.ExecutionError{Msg: fmt.Sprintf("rehydrate failed for row %d of %s", i, at.TypeID())}
		}
		out = append(out, match)
	}
	return out, nil
}
