// Package model defines the collaborator surface of the feature store: the
// interfaces through which the extractor pulls raw data from the
// optimization solver and from the user's problem instance.
//
// The solver bindings and the instance definition layer themselves live
// outside this module; only the data they hand over is modeled here, as
// per-entity parallel arrays. Index i refers to the same logical entity
// (variable or constraint) in every array of a struct.
package model
