// Package storage provides the durable key-value persistence behind the
// session store.
//
// # Contract
//
// Exactly two string keys form the entire persisted contract: [KeyToken]
// (raw bearer string) and [KeyCurrentUser] (serialized identity snapshot).
// Both absent means logged out. One [Store.Apply] call is atomic: a reader
// never observes the token updated without the snapshot or vice versa.
//
// # Architecture boundaries
//
// This package moves opaque strings. It does NOT parse tokens, decode
// identity snapshots, or decide what a missing key means; those
// responsibilities belong to the session store and the guard.
package storage
