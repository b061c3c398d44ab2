// Package testing provides standardised tests and benchmarks for containers
// that satisfy collections.Map or collections.List.
//
// The package contains:
//   - map_testing: a conformance suite for the collections.Map contract
//   - list_testing: a conformance suite for the collections.List contract
//   - benchmarks: throughput benchmarks shared by the package tests and `dcoll bench`
//
// Example usage:
//
//	func TestConformance(t *testing.T) {
//		ctesting.RunMapTests(t, "TreeMap", true, func() collections.Map[int, string] {
//			return treemap.New[int, string](nil)
//		})
//	}
package testing
