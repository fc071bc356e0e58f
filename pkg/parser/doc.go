// Package parser turns chunk bytes into typed column values.
//
// A chunk is parsed twice. The first pass (Scan, then Reconcile) finds row
// boundaries and stitches the rows that straddle chunk edges back together.
// GuessSetup then picks the separator and input format from the first
// logical rows, a Guesser votes on column types per chunk, and after the
// votes are merged into a schema.Schema a Materializer converts every chunk's
// rows into float64 columns.
//
// Everything except Reconcile works on one chunk at a time and may run in
// parallel. Reconcile is a cheap serial fold over the boundary fragments.
package parser
