// Package state owns all persistent data of the tracker bot: the
// participant and control reference data, the event metadata, the
// subscriptions, and the feed status.
//
// Everything lives in a single snapshot document that is loaded once,
// served from memory, and rewritten to disk in full after every mutation.
// The rewrite is atomic (temp file plus rename), so readers of the file
// never observe a partial write.
//
// The main components are:
//
//   - [Store]: the snapshot store with all read/mutate operations
//   - [Participant], [Control], [Event], [Subscription]: read-only views
//     built on demand from the current snapshot
//   - [RemovalObserver]: notified when a configuration reload drops
//     participants that subscribers were watching
//
// A Store serializes its mutations with an internal mutex; it is safe for
// concurrent use by the sync engine and the chat handlers.
package state
