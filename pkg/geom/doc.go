// Package geom defines the 2D geometry types for Kerf.
// Curves are Bézier paths placed by an affine transform; shapes group
// one outer curve with zero or more hole curves. Flattening a shape
// yields the canonical polygon-with-holes boundary the toolpath
// engines consume: outer counter-clockwise, holes clockwise, simple
// and non-degenerate or rejected outright.
package geom
