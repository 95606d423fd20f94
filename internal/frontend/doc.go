// Package frontend defines the model every front end produces: the declared
// redirect sets and the target classes that use them.
//
// Two front ends exist. The document front end reads a YAML (or JSON) file;
// the marker front end reads annotations from compiled classes.
package frontend
