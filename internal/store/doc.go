// Package store provides SQLite-backed storage for limiter state.
//
// Tables:
//   - locks: accounts restricted to debt repayment
//   - debts: outstanding debts, keyed (debtor, id) with UNIQUE (debtor, digest)
//   - debt_sequences: per-debtor id allocator, so ids are never reused
//   - limits: per-currency ceilings
//   - whitelists: per-currency exemptions, kind "from" or "to"
//   - used_limits: per-currency, per-account usage counters
//   - invocations: append-only journal of executed invocations
//
// # Transactions
//
// Every engine invocation runs inside one Tx obtained from Store.Begin and is
// rolled back on any error, so a rejected invocation leaves no trace in the
// state tables. Reads for listing use Store.View.
//
// # Determinism
//
// Every list query has a total ORDER BY over its key columns. Timestamps
// are stored as Unix seconds and read back in UTC.
//
// Schema changes are applied with golang-migrate from the embedded
// migrations directory.
package store
