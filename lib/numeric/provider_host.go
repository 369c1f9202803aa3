//go:build !streamstats_softfloat

package numeric

// Provider returns the Ops implementation selected at build time.
func Provider[F Float]() Ops[F] {
	return HostOps[F]{}
}
