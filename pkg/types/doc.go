// Package types defines the shared vocabulary of the registry layer: value
// kinds, key handles and access rights, native status codes, and the typed
// error categories every other package returns.
//
// Design goals:
//   - Numbers align with the Windows definitions so a native backend can pass
//     them straight through.
//   - Small, copyable handles (Handle) instead of object graphs.
//   - Typed errors with stable categories (store/unsupported/type/overflow/...)
//     that callers branch on with errors.Is.
//
// This package has no dependencies beyond the standard library.
package types
