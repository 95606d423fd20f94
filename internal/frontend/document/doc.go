// Package document reads redirect sets and targets from a YAML document.
//
// JSON documents are accepted as well since they are valid YAML. Type names
// are Java source names ("int", "a.b.Foo[]"); a simple name resolves through
// the imports in scope and otherwise defaults to java.lang.
package document
