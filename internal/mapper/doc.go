// Package mapper translates logical class and member names into the physical
// names of a particular build. Identity is the default; Table loads explicit
// renames from YAML.
package mapper
