// Package imaging provides the raster operations behind template
// detection: preprocessing of rendered pages, partitioning into named
// layout regions, grayscale histograms, Canny edge detection, and
// directional binary morphology.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with origin at the top-left corner;
// X increases rightward and Y increases downward. Region boxes use
// inclusive top-left and exclusive bottom-right corners. Normalized
// boxes are [x1, y1, x2, y2] as fractions of page size.
//
// # Pipeline Order
//
// Rendered pages are preprocessed with CLAHE first and blurred second.
// The order is part of the visual fingerprint contract: signatures
// generated under equalize-then-blur only compare cleanly against
// inputs processed the same way.
//
// # Thread Safety
//
// All functions are pure: they allocate their outputs and never mutate
// their inputs, so they can be called concurrently.
package imaging
