// Package reactor drives kinetics networks through idealized reactors.
//
//   - [Batch]: closed batch reactor (BSTR) stepped for a fixed number of steps,
//     with detectors able to print, record or quench after every step
//   - [Session]: one batch run advanced a step at a time
//   - [CSTR]: continuous stirred-tank reactor solved to steady state by fixed-point iteration
//
// Reactors never write to stdout. Diagnostics go to an injected [slog.Logger] and detector
// state reports go to a [Reporter].
//
// # Example
//
//	b := reactor.NewBatch(chems, rxns, det)
//	trace, err := b.Run(ctx, reactor.BatchConfig{Dt: 0.01, Steps: 1000})
//	if err == nil && !trace.Expired {
//	    // a detector quenched the run early
//	}
package reactor
