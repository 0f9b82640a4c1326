// Package cache provides the read-through cache the query service layers
// over repositories, plus stable key serialization.
//
// CacheService is the caching contract; GetOrFetch is its typed wrapper.
// KeySerializer builds deterministic keys of the form
//
//	table::method::<canonical-json-args>
//
// Keys lead with the table name, so every cached read for a table shares a
// prefix and a mutation can invalidate the whole table with DeleteByPrefix.
// Arguments serialize as canonical JSON with sorted object keys, so
// logically equal filter maps always land on the same entry.
//
// The default implementation is backed by sturdyc (see NewCacheService);
// alternate backends plug in by implementing CacheService.
package cache
