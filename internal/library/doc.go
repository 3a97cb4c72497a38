// Package library keeps the user's saved readings.
//
// A library is a single persisted State holding at most Capacity
// readings, newest first. When a new reading does not fit, the oldest
// reading that is not a favorite is evicted. Favorites are never evicted,
// so a library full of favorites silently drops new readings instead.
//
// Readings are a closed set of variants, one per reading.Kind, all
// implementing the sealed Reading interface. Builders stamp ids and
// creation times onto caller-supplied fields; the Store persists them.
package library
