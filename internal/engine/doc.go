// Package engine is the facade over the habit ledger and the review
// scheduler.
//
// Every mutating operation is transactional: the ledgers are changed in
// memory, the whole state is committed through the Store, and if the commit
// fails the ledgers are rebuilt from the last committed state before the
// error is returned. Queries read the in-memory ledgers.
//
// The engine is single-threaded and not re-entrant. A mutating call made
// while another is in progress (for example from a milestone hook) fails
// with errs.ReentrantCall.
//
// Dates: a zero civil.Date argument means "today" as reported by the Clock.
package engine
