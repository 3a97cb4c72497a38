// Package kv provides the synchronous key/value persistence primitive the
// cache and the library are built on. Backends keep one value per string
// key and support put, get, delete and key enumeration.
package kv
