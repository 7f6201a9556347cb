// Package rules memoizes CommandQ executions: at most one build runs
// concurrently per distinct hash, and a completed build's result is reused
// for every later request carrying the same hash.
package rules

import "go.trai.ch/bob/internal/core/domain"

// Map transforms the reconstructed value of an Output without touching its
// declared paths. Go methods cannot carry their own type parameters, so
// Output's applicative combinators live here as free functions instead of
// methods on domain.Output.
func Map[A, B any](o domain.Output[A], f func(A) B) domain.Output[B] {
	return domain.NewOutput(o.Paths, func(h domain.Hash) B {
		return f(o.Reconstruct(h))
	})
}

// And2 combines two Outputs into one producing a pair, concatenating their
// declared paths. Both reconstructors run against the same resulting hash,
// since both sets of paths were produced by the same CommandQ.
func And2[A, B any](a domain.Output[A], b domain.Output[B]) domain.Output[struct {
	A A
	B B
}] {
	paths := make([]domain.RelPath, 0, len(a.Paths)+len(b.Paths))
	paths = append(paths, a.Paths...)
	paths = append(paths, b.Paths...)
	return domain.NewOutput(paths, func(h domain.Hash) struct {
		A A
		B B
	} {
		return struct {
			A A
			B B
		}{A: a.Reconstruct(h), B: b.Reconstruct(h)}
	})
}
