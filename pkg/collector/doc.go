// Package collector drives multi-page collection runs against paginated
// data sources.
//
// A collection run repeatedly fetches one page, folds it into the
// collector's accumulation state, asks the collector whether it is done and
// finally converts the accumulated state into a single finished value.
// Concrete collectors supply the extension points; the driver owns the loop.
//
// Example usage:
//
//	entries := notion.NewDatabaseEntriesCollector(client, databaseID)
//	pages, err := collector.Collect(ctx, entries, collector.WithName("database_entries"))
//
// The driver:
//   - Issues exactly one Fetch at a time, never in parallel
//   - Calls Process on every fetched page, the last one included
//   - Evaluates Done only after Process, so the page that satisfies the
//     stop condition is never dropped
//   - Returns the first fetch error unchanged and never calls Finish after it
//   - Refuses to run a collector twice (see Once)
package collector
