// Package core provides the business logic for bulk account imports.
//
// This package is the heart of the importer, containing all domain logic
// independent of any UI, storage, or transport layer. It can be used by web
// handlers, CLI tools, or tests without modification.
//
// # Architecture
//
// An import flows through a fixed sequence of stages:
//
//   - [RowSource] opens the uploaded file and yields raw records.
//   - [RowParser] turns a record into a [Candidate] or a [ParseError].
//   - [DuplicatePolicy] decides whether the candidate is skipped, created as-is,
//     or created with a rewritten e-mail address.
//   - [AccountDirectory] creates the account.
//   - [Report] collects exactly one outcome per processed row.
//
// [Pipeline] wires those stages together for a single import. [Service] wraps
// the pipeline with persisted settings, a concurrency limiter, import history,
// and metrics.
//
// # Failure Isolation
//
// A bad row never aborts the batch. Parse failures, lookup failures and
// creation failures are recorded as [RowError] outcomes and processing moves on
// to the next row. Only a source that cannot be opened fails the import as a
// whole ([SourceUnreadableError]).
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - SRC001-SRC003: Source errors (unreadable, missing, empty)
//   - VAL001-VAL006: Row validation errors
//   - VAL007: Invalid import settings
//   - VAL008: Invalid role name
//   - DUP001: Duplicate resolution exhausted
//   - DIR001-DIR004: Account directory errors
//   - FILE001-FILE004: Upload file errors
//   - IMP001-IMP002: Import errors (busy, cancelled)
package core
