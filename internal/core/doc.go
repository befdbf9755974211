// Package core converts NEM12 interval metering files into SQL.
//
// A NEM12 file is a stream of comma-separated records identified by their
// first field: 100 (header), 200 (meter), 300 (interval data), 400
// (override), 500 (note) and 900 (footer). [Convert] reads such a stream
// line by line and writes batched multi-row INSERT statements for the
// meter_readings table, without ever holding the whole file in memory.
//
// # Pipeline
//
//   - [Classify] turns a line into one of the [Record] variants.
//   - [Parser] applies records in order: it keeps the NMI context of the
//     latest 200 record and the latest 300 block, expands values into
//     [Reading]s and buffers them in a [PendingBatch].
//   - The batch flushes into an [Emitter], which renders chunked INSERT
//     statements with [Render] semantics and writes them to the output.
//   - A [StreamValidator] records whether the header and footer were seen;
//     a file missing either yields an invalid [Result].
//
// # Service
//
// [Service] wraps [Convert] for the HTTP server with a [ConversionLimiter]
// and a table of recent run summaries. Errors meant for end users go
// through [MapError].
package core
