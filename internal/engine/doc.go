// Package engine implements the transfer gate and the administrative
// operations around it.
//
// The engine is a single writer. Execute takes a mutex, so invocations run
// one at a time in the order callers obtain the lock. Each invocation
// runs inside one store transaction:
//
//  1. A sequence number is taken from the Clock and the content-addressed
//     invocation id is computed from (op, args, now, seq).
//  2. The operation is dispatched by a type switch over model.Args variants.
//  3. On success the journal entry is appended in the same transaction and
//     the transaction commits.
//  4. On a GateError the transaction rolls back, so no partial effect
//     survives (a consumed debt included), and the rejection is journaled in
//     a transaction of its own.
//
// Any other error (store failure, cancelled context) aborts the invocation
// without a journal entry and gives the sequence number back.
//
// Wall time is never used for ordering. Invocation.Now is read once by the
// caller and is the only notion of "now" an operation sees.
package engine
