// Package values defines how an aggregator reads field values.
//
// A Source is bound to one field and opens per-segment iterators. Iterators
// are positioned with SetDocument and expose the values of that document
// through Count and ValueAt. Sources whose values are dictionary encoded
// also implement WithOrdinals, which exposes per-document ordinals into a
// sorted dictionary of distinct values.
//
// MemorySegment is an in-memory implementation used by tests, examples and
// callers that already hold their documents in memory:
//
//	seg, err := values.NewSegmentBuilder(0).
//		AddStrings(0, "user", "alice").
//		AddStrings(1, "user", "bob").
//		Build()
//	src := values.NewBytesField("user")
package values
