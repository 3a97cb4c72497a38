// Package reading holds the small value types shared by the cache and the
// library: the closed set of reading kinds and the natural periods a
// reading can cover.
package reading
