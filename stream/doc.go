// Package stream provides composable, pull-based operators over event
// streams.
//
// Streams are lazy: no work happens until ForEach pulls values. Each stage
// pulls from the previous one on demand.
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value
//   - Debounce: emit the latest value once the source has been quiet
//
// The snapshot watcher in package source is built from these operators:
//
//	events := stream.FromChan(w.Events)
//	relevant := stream.Filter(events, isTarget)
//	settled := stream.Debounce(relevant, 200*time.Millisecond)
//	loaded := stream.Map(settled, reload)
//	stream.ForEach(ctx, loaded, deliver)
package stream
