// Package present prepares rendered frames for a viewer: supersample
// reduction, a text overlay and human-readable launch statistics.
//
// Both the fractal command and the interactive viewer use it, so a PNG
// and a window show the same overlay.
package present
