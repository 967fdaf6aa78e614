package util

// Filter returns the elements of s matching p in a new slice, leaving s untouched.
// The result is never nil so it encodes as an empty JSON array.
func Filter[T any](s []T, p func(T) bool) []T {
	filtered := make([]T, 0, len(s))
	for _, e := range s {
		if p(e) {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
