// Package target declares what a destination class receives: either the
// whole content of a source class, or a list of methods that are cloned from
// a source or rewritten in place.
package target
