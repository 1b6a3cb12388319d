// Package internal holds helpers shared by the emulator packages.
package internal

import (
	"iter"
)

// Concat2 yields every pair of each sequence in turn.
// Iteration stops as soon as the consumer stops.
func Concat2[K any, V any](seqs ...iter.Seq2[K, V]) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, seq := range seqs {
			if seq == nil {
				continue
			}
			for key, val := range seq {
				if !yield(key, val) {
					return
				}
			}
		}
	}
}
