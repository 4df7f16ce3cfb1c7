// Package valgen builds small closures that generate successive
// expected values for golden traces, so a fixtures.Trace's
// CycleExpectation sequence doesn't have to be typed out by hand for
// every cycle of a counter-shaped test component.
package valgen

// MakeConstGen returns a generator that always yields constant.
func MakeConstGen(constant uint64) func() uint64 {
	return func() uint64 {
		return constant
	}
}

// MakeIncreasingGen returns a generator that yields start on its first
// call and increments by one on every call after.
func MakeIncreasingGen(start uint64) func() uint64 {
	current := start
	first := true
	return func() uint64 {
		if first {
			first = false
			return current
		}
		current++
		return current
	}
}
