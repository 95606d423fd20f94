// Package transform applies redirect sets to a parsed destination class.
//
// A target class is transformed in one of two modes. In whole-class mode
// every member of a source class is transplanted into the destination and
// rewritten; members the destination already declares take precedence. In
// per-method mode each target method is either cloned from a source method
// or rewritten in place, optionally with a static accessor.
//
// Bodies pass through three rewrites, in order:
//
//  1. self references to the source class are moved to the destination;
//  2. cross-class redirects turn field and call sites into static accesses
//     on another class;
//  3. the remaining names are renamed through the flattened redirect tables.
//
// Lambda helpers referenced by a rewritten body are copied alongside it.
package transform
