// Package core provides the business logic for bulk contact dispatch.
//
// This package contains all domain logic independent of the HTTP layer and
// of any concrete messaging transport. It can be used by web handlers, CLI
// tools, or tests without modification.
//
// # Pipeline
//
// One upload request flows through four stages:
//
//  1. [DecodeUpload] turns the uploaded bytes into text (BOM aware, invalid
//     UTF-8 replaced, size bounded).
//  2. [Parse] splits the text into [ContactRecord] values and per-line
//     [ValidationError] values. Blank lines are skipped and do not consume
//     a line number.
//  3. [Dispatch] renders the message template for every contact and sends
//     it through a transport.Sender with at most BatchWidth sends in flight.
//     Failures are recorded per contact and never stop the run.
//  4. [Aggregate] merges parse errors and delivery failures into a [Report].
//
// [Service] wires the stages together behind the readiness gate and the
// [DispatchLimiter].
//
// # Line numbers
//
// Line numbers always refer to the position of a line among the non-blank
// lines of the file, starting at 1. A line number appears at most once in a
// Report: a line either failed to parse or was dispatched, never both.
//
// # Error Handling
//
// Per-line problems are data, carried in the Report. Request-level problems
// (transport not ready, too many dispatches, file too large) are returned as
// errors wrapping the sentinels in errors.go, and mapped to user-facing
// messages with [MapError].
package core
