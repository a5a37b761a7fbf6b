// Package storage resolves where cache files live. A Manager computes the
// storage root once per process from explicit Locations and hands out one
// Namespace directory per bin:
//
//	<root>/cache        # the default bin
//	<root>/cache_<bin>  # every other bin
//
// Creating directories and tightening their permissions is delegated to a
// Preparer so hosts can plug in their own policy.
package storage
