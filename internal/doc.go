// Package internal implements the HTTP application behind the fuzzfleet
// package: the chi-backed router, the request Context, typed HTTP errors,
// JSON binding with struct validation, and the graceful server runtime.
//
// Everything here is re-exported through type aliases in the root package;
// import that instead.
package internal
