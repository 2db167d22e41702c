// Package store keeps the most recent poll observation for the status server.
//
// This package is internal to pjsipwatch. It holds the latest
// [Observation] produced by the watch loop together with a few running
// totals, and implements a publish-subscribe pattern so the status server can
// stream observations to connected clients as they happen.
//
// The main components are:
//
//   - [Store]: Interface defining storage and subscription operations
//   - [MemoryStore]: In-memory implementation of Store with pub/sub
//   - [Observation]: Storage representation of one poll cycle
//
// Subscribers receive updates via channels with non-blocking sends (slow
// subscribers miss updates rather than stall the watch loop).
package store
