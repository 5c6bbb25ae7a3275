// Package sample defines the typed value model and store contract for
// solver training data.
//
// A Sample maps string keys to exactly one typed value each: a Scalar, a
// homogeneous Vector, a ragged VectorList, a dense Array or a sparse COO
// matrix. The value model is a closed, Kind-tagged union; validation is a
// switch over the tag rather than reflection.
//
// MemorySample is the in-process backend. The durable, file-backed backend
// lives in the container package and implements the same Sample interface.
package sample
