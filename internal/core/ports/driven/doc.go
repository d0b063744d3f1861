// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - SyncAPI: REST operations against the sync backend
//   - EventStream: The real-time push channel
//   - Clock: Time and tickers, injectable for tests
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Browser: Opens authorisation windows. Without it, every auth flow
//     takes the URL-fallback path.
//   - SnapshotStore: Local cache of the last known registry state.
//     Without it, state is rebuilt purely from GET /sources.
//   - ConfigStore: Settings persistence.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
