// Package codec converts cache entries to and from the bytes stored in a
// primary file. Two codecs exist:
//
//	Plain      msgpack bytes, written verbatim.
//	Embedded   msgpack bytes, base64 encoded and wrapped in a one-line
//	           script that binds them to $cache when a host loads the file
//	           as code. Experimental: a damaged file can break the host's
//	           loader rather than fail cleanly, so it is never the default.
//
// Decode failures are reported as ErrDecode; callers treat them as a miss.
package codec
