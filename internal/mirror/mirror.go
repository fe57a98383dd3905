package mirror

import "fmt"

// Mirror runs one full pass: propagation to completion, then reconciliation
// to completion. The two never interleave.
type Mirror struct {
	propagator *Propagator
	reconciler *Reconciler
}

// New creates a Mirror whose two components share fsys and opts.
func New(fsys FS, opts Options) *Mirror {
	return &Mirror{
		propagator: NewPropagator(fsys, opts),
		reconciler: NewReconciler(fsys, opts),
	}
}

// Pass brings replicaRoot in line with sourceRoot. A failure in either
// component aborts the pass; the returned Stats still count what was done.
func (m *Mirror) Pass(sourceRoot, replicaRoot string) (Stats, error) {
	total, err := m.propagator.Propagate(sourceRoot, replicaRoot)
	if err != nil {
		return total, fmt.Errorf("propagating: %w", err)
	}

	rs, err := m.reconciler.Reconcile(sourceRoot, replicaRoot)
	total.Add(rs)

	if err != nil {
		return total, fmt.Errorf("reconciling: %w", err)
	}

	return total, nil
}
