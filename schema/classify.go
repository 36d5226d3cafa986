package schema

// Classify decides whether a column is Discrete or Continuous.
//
// Missing values are ignored. The column is Continuous when at least one
// value remains and every remaining value parses to a finite number;
// otherwise it is Discrete. An all-missing column is Discrete with a
// single "" category, which callers should treat as uninformative.
func Classify(values []Value) Kind {
	present := 0
	for _, v := range values {
		if IsMissing(v) {
			continue
		}
		if !IsFinite(v) {
			return Discrete
		}
		present++
	}
	if present == 0 {
		return Discrete
	}
	return Continuous
}

// IsDegenerate reports whether every value is missing.
func IsDegenerate(values []Value) bool {
	for _, v := range values {
		if !IsMissing(v) {
			return false
		}
	}
	return true
}
