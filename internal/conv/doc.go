// Package conv collects tiny helper functions that are not part of the public API
// but aid internal conversions.
//
// At the moment it only exposes `AsInt64` which attempts to coerce various numeric
// types into an int64, as found in generically decoded DAP payloads.
package conv
