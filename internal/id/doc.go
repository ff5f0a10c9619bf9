// Package id generates ULIDs for tagging served requests.
//
// A ULID is a 26-character, lexicographically sortable identifier with a
// 48-bit millisecond timestamp prefix and 80 bits of randomness, encoded
// in Crockford base32. Generation is monotonic within a process: ULIDs
// minted in the same millisecond reuse the previous entropy incremented
// by one, so request-log filenames sort in mint order.
package id
