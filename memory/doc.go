// Package memory implements the segmented memory of the Universal Machine.
//
// Memory is a collection of independently sized segments of 32-bit words,
// each addressed by a handle. Segment 0 holds the running program and is
// always mapped. Handles released by Free are reused lowest-first by
// Allocate.
package memory
