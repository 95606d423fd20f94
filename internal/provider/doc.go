// Package provider supplies class-file bytes by fully qualified class name.
//
// Dir reads classes below a base URL through afs, so local directories and
// any storage afs supports work alike. Jar indexes the classes of a jar once.
// Static serves an in-memory map. Caching and Chain compose providers.
package provider
