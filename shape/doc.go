// Package shape infers structural type descriptions from observed JSON-like
// values and maintains an evolving per-tool return schema.
//
// A [Shape] describes the structure of a value: a primitive kind, an array
// with an item shape, an object with required/optional fields, a union of
// structurally distinct variants, or Unknown when nothing has been observed.
//
// # Extraction and Merging
//
// [Extract] maps a single value to a shape. A single extraction never yields
// a union at the top level; unions only arise when observations disagree,
// either across samples ([MergeShapes]) or across the elements of a
// heterogeneous array.
//
// Merging is pure: [MergeShapes] never mutates its operands, so shapes held
// by callers remain valid snapshots.
//
// # Schema Registry
//
// [Registry] accumulates one [ReturnSchema] per tool, created lazily on first
// observation. Observations carry a success flag and merge only into the
// matching success or error shape. Merges for the same tool are serialized
// with a per-key mutex so sample counts are exact under concurrent
// executions.
package shape
