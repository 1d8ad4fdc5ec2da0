// Package refresh serializes repository change notifications into a minimal
// sequence of full-history refetches: a prefix-tolerant head comparison
// decides what counts as new work, and a single-flight coordinator drains
// admitted heads one at a time.
package refresh

// ShouldRefresh reports whether candidate represents genuinely new work
// relative to the last head a refresh observed. Heads compare equal when one
// is a prefix of the other over the shorter length, so abbreviated and full
// hashes of the same commit match. An empty lastObserved is always
// refresh-eligible.
//
// Note the prefix rule can false-positive on very short abbreviated hashes;
// callers feed full or reasonably long hashes.
func ShouldRefresh(lastObserved, candidate string) bool {
	if lastObserved == "" {
		return true
	}
	n := min(len(lastObserved), len(candidate))
	return lastObserved[:n] != candidate[:n]
}
