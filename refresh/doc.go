// Package refresh tracks opaque refresh tokens server-side.
//
// A token string carries no structure or claims; its record in the [Store]
// is the single source of truth for ownership and expiry. Rotation safety
// rests on one store primitive: TakeByToken deletes the record and returns
// it in a single atomic step, so concurrent rotations of the same token
// resolve to exactly one winner without locks above the store.
//
// Two stores ship with the package: [RedisStore] for production (records
// carry Redis TTLs, atomic take via Lua) and [MemoryStore] for tests and
// single-node use.
package refresh
