// Package kinetics provides the species store and mass-action kinetics engine.
//
// The package defines the primitives every reactor drives:
//
//   - [Chemical]: one species with its live concentration and CSTR feed/outflow fields
//   - [Reaction]: an elementary mass-action step with a private concentration snapshot
//   - [Network]: an ordered set of reactions advanced with a stage/commit/refresh barrier
//
// # Snapshot Discipline
//
// With [Cached] rates every reaction in a step reads the same pre-step snapshot, so the
// order of reactions in a [Network] does not bias the result:
//
//	net := kinetics.NewNetwork(r1, r2)
//	net.RefreshCaches()
//	for i := 0; i < steps; i++ {
//	    net.Step(dt, kinetics.Cached)
//	}
//
// Networks are not safe for concurrent use; a single driver owns the species while stepping.
package kinetics
