// Package credentials caches backend bearer tokens per chat with a TTL.
//
// # Backends
//
//   - MemoryCache: in-process map, size-bounded, swept every minute
//   - StoreCache: rows in the SQLite store, survive restarts
//   - RedisCache: Redis keys with native expiry, shared between processes
//
// Every backend treats an entry read after its expiry as absent and removes
// it on that read. Sweeping is housekeeping only.
//
// # Token Lifetime
//
// EffectiveTTL shortens the requested TTL to a JWT's exp claim when the token
// carries one, so the bot never attaches a token the backend already rejects.
package credentials
