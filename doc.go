// Package featstore provides a typed, persistent feature store for training
// data collected while solving mixed-integer optimization problems.
//
// A Sample is a flat mapping from string keys to typed values: scalars,
// homogeneous vectors, ragged vector lists, dense arrays and sparse COO
// matrices. Two backends implement the same contract:
//
//   - sample.MemorySample — in-process map, no coercion, for short-lived
//     single-process use and tests.
//   - container.FileSample — single random-access container file with lazy
//     per-key reads, compact coercion (half-precision floats, fixed-width
//     text) and compression.
//
// # Quick Start
//
//	s := sample.NewMemorySample()
//	ex := extractor.New()
//	_ = ex.AfterLoad(instance, solver, s)
//	_ = ex.AfterLP(solver, stats, s)
//
// Durable samples work the same way:
//
//	f, _ := container.Create("0001.fst")
//	defer f.Close()
//	s := container.NewFileSample(f)
//
// The extractor package captures raw per-entity solver attributes at three
// checkpoints (after-load, after-LP, after-MIP), derives the AlvLouWeh2017
// branching features, and assembles the combined per-variable, per-constraint
// and per-instance feature matrices consumed by downstream ML components.
package featstore
