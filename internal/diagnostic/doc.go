// Package diagnostic provides the error taxonomy and the coded diagnostics
// collected while transforming classes.
//
// Key capabilities:
//   - Error kinds (configuration, resolution, unsupported redirect,
//     invariant) that callers test with errors.Is
//   - Implicit self-mapping reports
//   - Notes on cloned helpers, reused stubs and replaced members
package diagnostic
