// Package ledger implements the traceability ledger engine: chronological
// event validation, append-only event recording, transformation graph
// building, derived inventory balances with reconciliation, waste
// variance analysis, and chain-of-custody trace resolution.
//
// The engine owns all multi-entity invariants. Writes touching a lot are
// serialized per lot, and every lot mutation is a conditional write on
// the lot's version token, retried a bounded number of times when a
// concurrent writer wins.
package ledger
