// Package cache is the disk-backed entry store. A Store owns one bin's
// directory and keeps one primary file per entry plus, for entries that
// expire, a sidecar marker holding the Unix expiry:
//
//	<dir>/<token><suffix>          # codec-encoded entry
//	<dir>/<token><suffix>.expire   # decimal timestamp, absent when permanent
//
// Writers hold an exclusive flock(2) for the whole write. Readers read
// without locking and only fall back to a shared lock when the bytes do not
// decode, which is what a write in progress looks like. Expired entries are
// reclaimed lazily by GarbageCollection.
//
// Caching is best effort: the public methods never return errors. Failures
// are logged at debug level and surface as misses or skipped writes.
package cache
