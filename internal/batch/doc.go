// Package batch transforms every target class of a model concurrently and
// stores the results.
package batch
