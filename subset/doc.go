// Package subset provides rectangular subsets of N-dimensional index space
// and iterators over their elements.
//
// An [ArraySubset] is a start vector and a shape vector of equal length,
// covering the coordinates [start_i, start_i+shape_i) along each axis. The
// iterators enumerate, in row-major (C) order:
//
//   - [Indices]: the coordinate tuples inside the subset
//   - [LinearisedIndices]: flat offsets into a row-major buffer of an
//     enclosing array shape
//   - [ContiguousIndices] and [ContiguousLinearisedIndices]: maximal runs of
//     contiguous flat offsets, the primitive behind bulk copies between a
//     subset and a full array buffer
//   - [Chunks]: the coordinates of the chunks of a regular grid that overlap
//     the subset
//
// [Indices] and [Chunks] can be split into disjoint sub-iterators for
// parallel consumption.
package subset
