// Package tasks runs long list operations against the backend with real-time progress reporting.
//
// # Core Operations
//
// [ListEngine] implements two engines:
//
//  1. [ExportEngine.Export] : Concurrent export of lists to files
//     - Fetches each list with its items through the session pipeline
//     - Writes json, csv, markdown or txt files with a worker pool
//     - Throttles backend calls with a token bucket limiter
//     - Writes export_manifest.json summarizing every list, including failures
//
//  2. [SyncEngine.Sync] : Pull every list into the local cache
//     - Fetches all lists, then each list's items
//     - Replaces the cached copy of each list in one transaction
//     - Prunes cached lists the backend no longer returns
//
// # Progress Reporting
//
// All operations report through an optional channel of [ProgressUpdate]. Updates use select with default so a
// slow or absent reader never blocks an operation.
package tasks
