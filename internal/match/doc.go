// Package match ranks member names by similarity to a name that could not be
// resolved, so resolution errors can point at the likely intended member.
//
// Names are normalized before comparison: CamelCase and separators are
// folded away and bean accessor prefixes (get, set, is) are dropped, so
// "getTotalCount", "total_count" and "TotalCount" compare equal.
//
// Key functions:
//   - NormalizeIdent: normalizes identifiers for fuzzy matching
//   - Levenshtein: computes edit distance between strings
//   - Suggest: ranks candidate names against a missing one
package match
