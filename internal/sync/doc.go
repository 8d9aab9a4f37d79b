// Package sync implements one synchronization cycle for an account.
//
// A cycle fetches the account's connections, takes the first one, fetches its
// reading history and merges in the connection's current reading. Readings
// are ordered by parsed timestamp; the ones strictly after the stored
// watermark are written to the sink in a single call, and only after the
// sink succeeds is the watermark moved to the latest forwarded timestamp.
// A failed write leaves the watermark alone, so the same readings are offered
// again on the next cycle.
//
// # Core Interfaces
//
//   - Manager: runs cycles (PerformSync) and re-authenticates (Relogin)
//   - remote.DataProvider: the connection and history fetches
//   - writer.ReadingWriter: the sink
//   - state.WatermarkStore: the persisted watermark
//
// # Errors
//
// Failures are returned as *Error carrying the Stage they occurred in. The
// wrapped error keeps the llu taxonomy intact, so callers test with errors.Is
// and errors.As (for example llu.IsTokenExpired) regardless of stage.
//
// Retrying after token expiry is not done here. The coordinator calls Relogin
// and runs the cycle again.
package sync
