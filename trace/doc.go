// Package trace records the lifecycle of requests handled by the transfer
// engine.
//
// Each request becomes a [Task] with a start and end time, a byte count and
// the classified error, if any. A stop command chained after a data phase is
// traced as a child task of its request. Tasks flow into a [Tracer]:
//
//   - [Recorder] pairs start and end events and hands finished tasks to a
//     [Writer] ([CSVWriter] or [SQLiteWriter])
//   - [StatsTracer] keeps per-kind counters in memory
//
// Writers buffer tasks and register a flush with atexit, so traces survive
// an early exit of the mcisim command.
package trace
