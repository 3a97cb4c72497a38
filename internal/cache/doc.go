// Package cache memoizes computed readings in a key/value store. Entries
// carry an absolute expiry, are evicted when read after they expire, and
// are keyed by the semantic identity of a request so that the same sign,
// period and day always map to the same entry. Period helpers align expiry
// with local midnight, the end of the ISO week, month or year.
package cache
