// Package lane classifies raw line segments into left and right lane
// candidates and extrapolates one representative line per side.
//
// Coordinates follow the image convention: x grows to the right and y grows
// downward. A segment rising from bottom-left to top-right therefore has a
// negative slope and is tagged Right by the default rule table.
//
// Pipeline Overview:
//
// ┌──────────────────┐
// │ Raw Segments     │
// └──────┬───────────┘
// ┌──────────────────────────────────────┐
// │ Normalize (top point first)          │
// │ Slope/Intercept (m = 0 if vertical)  │
// └──────┬───────────────────────────────┘
// ┌──────────────────────────────────────┐
// │ Rules: first open slope range match  │
// └──────┬───────────────────────────────┘
// ┌──────────────────────────────────────┐
// │ Cluster mean slope/intercept, y span │
// └──────┬───────────────────────────────┘
// ┌──────────────────────────────────────┐
// │ Project x = (y - b) / m at y extents │
// └──────────────────────────────────────┘
//
// Everything in this package is pure and allocation-local; nothing is carried
// between calls.
package lane
