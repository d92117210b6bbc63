// Package session implements the process-wide singleton bundle of
// spec.md §5: the Def registry, HierName pool, device/layer class
// tables, and per-Def flat node tables, all owned for the lifetime of
// one extract command and torn down at its end — no state is
// retained across commands.
//
// Grounded on the teacher's merge.Session: a struct gathering every
// component a multi-step operation needs (there, tx manager, dirty
// tracker, index, allocator, strategy; here, registry, pool, class
// tables), constructed once via an Open/New call and driven through
// the steps of one logical operation.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rtimothyedwards/extflat/internal/classindex"
	"github.com/rtimothyedwards/extflat/internal/defreg"
	"github.com/rtimothyedwards/extflat/internal/devmodel"
	"github.com/rtimothyedwards/extflat/internal/extreader"
	"github.com/rtimothyedwards/extflat/internal/flatten"
	"github.com/rtimothyedwards/extflat/internal/hiername"
	"github.com/rtimothyedwards/extflat/internal/sim"
	"github.com/rtimothyedwards/extflat/internal/spice"
	"github.com/rtimothyedwards/extflat/internal/verify"
	"github.com/rtimothyedwards/extflat/pkg/efmodel"
)

// Session is the command-scoped bundle of spec.md §5's shared
// resources.
type Session struct {
	Pool   *hiername.Pool
	Reg    *defreg.Registry
	Types  *classindex.DeviceTypes
	Layers *classindex.LayerNames

	Errors ErrorSummary
}

// Open constructs a fresh Session. Every extract command calls Open at
// the start of its init phase; the returned Session is discarded at
// teardown along with everything it owns.
func Open() *Session {
	return &Session{
		Pool:   hiername.NewPool(),
		Reg:    defreg.New(),
		Types:  classindex.NewDeviceTypes(),
		Layers: classindex.NewLayerNames(),
	}
}

// Close releases s. Every table a Session owns is process-local
// memory with no external handle, so this is presently a no-op; it
// exists so every command has one symmetric teardown call to make.
func (s *Session) Close() error { return nil }

// Read drives one ReadHierarchy pass through extreader, recording
// every NodeMissingWarning it collects into s.Errors, and returns the
// populated Reader — its Tables map is what flatten/spice/sim expect.
func (s *Session) Read(root string, src extreader.Source) (efmodel.DefID, *extreader.Reader, error) {
	r := extreader.New(s.Pool, s.Reg, s.Types, s.Layers, src)
	id, err := r.ReadHierarchy(root)
	if err != nil {
		return id, r, fmt.Errorf("session: read %s: %w", root, err)
	}
	for range r.Warnings {
		s.Errors.record(KindNodeMissing)
	}
	return id, r, nil
}

// ToSpice runs the full extract-to-spice pipeline for root (read, then
// either a hierarchical per-Def walk or one full flatten), writing the
// result to w. hierOpts is used only when hierarchical is true;
// flatOpts only when it is false.
func (s *Session) ToSpice(ctx context.Context, w io.Writer, src extreader.Source, root string, hierarchical bool, flags flatten.Flags, hierOpts spice.HierOptions, flatOpts spice.Options) error {
	id, r, err := s.Read(root, src)
	if err != nil {
		return err
	}
	return s.EmitSpice(ctx, w, r, id, hierarchical, flags, hierOpts, flatOpts)
}

// EmitSpice runs the flatten/emit half of ToSpice against an already
// read Reader, so a caller that needs the root Def (e.g. to resolve
// its Scale record into a ".option scale=" string before building
// flatOpts/hierOpts) can call Read and EmitSpice separately instead of
// paying for a second read.
func (s *Session) EmitSpice(ctx context.Context, w io.Writer, r *extreader.Reader, id efmodel.DefID, hierarchical bool, flags flatten.Flags, hierOpts spice.HierOptions, flatOpts spice.Options) error {
	root := s.Reg.Name(id)
	if hierarchical {
		warnings, err := spice.EmitHierarchical(ctx, w, hierOpts, s.Reg, s.Pool, s.Types, r.Tables, id)
		s.recordSpiceWarnings(warnings)
		if err != nil {
			return fmt.Errorf("session: emit %s: %w", root, err)
		}
		return nil
	}

	res, err := flatten.Flatten(ctx, s.Reg, s.Pool, r.Tables, id, flags)
	if err != nil {
		return fmt.Errorf("session: flatten %s: %w", root, err)
	}
	s.recordFlattenWarnings(res)

	flatOpts.Ports = spice.PortsOf(res.Table)
	if err := spice.EmitFlat(w, flatOpts, s.Pool, s.Types, res); err != nil {
		return fmt.Errorf("session: emit %s: %w", root, err)
	}
	return nil
}

// ToSim runs the full extract-to-sim pipeline: read, flatten, emit.
// The .sim format has no hierarchical variant (§4.8): every run
// flattens root completely.
func (s *Session) ToSim(ctx context.Context, w io.Writer, src extreader.Source, root string, flags flatten.Flags, opts sim.Options) error {
	id, r, err := s.Read(root, src)
	if err != nil {
		return err
	}
	return s.EmitSim(ctx, w, r, id, flags, opts)
}

// EmitSim is ToSim's flatten/emit half, split out the same way
// EmitSpice is so a caller can resolve the root Def's Scale record
// between Read and emission without reading twice.
func (s *Session) EmitSim(ctx context.Context, w io.Writer, r *extreader.Reader, id efmodel.DefID, flags flatten.Flags, opts sim.Options) error {
	root := s.Reg.Name(id)
	res, err := flatten.Flatten(ctx, s.Reg, s.Pool, r.Tables, id, flags)
	if err != nil {
		return fmt.Errorf("session: flatten %s: %w", root, err)
	}
	s.recordFlattenWarnings(res)

	warnings, err := sim.Emit(w, opts, s.Pool, s.Types, res)
	s.recordSimWarnings(warnings)
	if err != nil {
		return fmt.Errorf("session: emit %s: %w", root, err)
	}
	return nil
}

// Merge runs devmodel.MergeAll over res's flattened devices under
// strat, recording one ErrParallelMergeConflict warning per offending
// pair, and returns the surviving (non-killed) instances.
func (s *Session) Merge(res *flatten.Result, strat devmodel.Strategy) []devmodel.Instance {
	instances := devmodel.NewInstances(res.Devices)
	merged, warnings := devmodel.MergeAll(instances, strat)
	for _, w := range warnings {
		if errors.Is(w, devmodel.ErrParallelMergeConflict) {
			s.Errors.record(KindParallelMergeConflict)
		}
	}
	return devmodel.Live(merged)
}

// Verify runs the net-list verifier of §4.9 against geo/sink, and
// rolls its Summary into s.Errors.
func (s *Session) Verify(ctx context.Context, geo verify.GeometryDB, sink verify.FeedbackSink, nets []verify.Net) ([]verify.Result, verify.Summary, error) {
	results, sum, err := verify.Verify(ctx, geo, sink, nets)
	if sum.Opens > 0 {
		s.Errors.Count += sum.Opens
		s.Errors.Kinds |= KindVerifyOpen
	}
	if sum.Shorts > 0 {
		s.Errors.Count += sum.Shorts
		s.Errors.Kinds |= KindVerifyShort
	}
	return results, sum, err
}

func (s *Session) recordFlattenWarnings(res *flatten.Result) {
	for range res.Warnings {
		s.Errors.record(KindGlobalSplit)
	}
}

func (s *Session) recordSpiceWarnings(warnings []error) {
	for _, w := range warnings {
		if errors.Is(w, flatten.ErrPortOptimizedOut) {
			s.Errors.record(KindPortOptimizedOut)
		}
	}
}

func (s *Session) recordSimWarnings(warnings []sim.Warning) {
	for range warnings {
		s.Errors.record(KindSimDeviceFallback)
	}
}
