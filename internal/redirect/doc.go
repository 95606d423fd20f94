// Package redirect defines redirect rules and named, composable sets of them.
//
// A Set extends other sets by name. Registry.Resolve merges every ancestor
// into a fresh set before the set's own entries, so when an ordered list of
// resolved sets is flattened later, the last entry for a symbol wins.
package redirect
