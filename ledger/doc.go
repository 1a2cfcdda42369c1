// Package ledger is the paper registry's state machine.
//
// A Ledger owns the paper-id counter, every paper record with its append-only
// version history, and the set of content hashes reserved by approved papers.
// Mutations are serialized under one write lock, journaled before they touch
// memory, and announced to an events.Sink afterwards. Reads run concurrently
// and only ever return copies.
//
// Lifecycle:
//
//	PENDING -> PUBLISHED | REJECTED
//	PENDING | PUBLISHED | REJECTED -> REMOVED
//
// Only PUBLISHED papers accept new versions. Approval reserves the content
// hash of the original version (index 0) forever; removal never releases it.
package ledger
