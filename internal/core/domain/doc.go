// Package domain defines the core business entities for datasync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DataSource: A configured provider/layer pairing and its sync state
//   - SyncStatus / Event / Transition: The sync lifecycle state machine
//   - ProgressSnapshot / ProgressUpdate: Per-source progress projection
//   - EmbeddingCounts: Embedding queue depth and the completion rule
//   - PushEvent: Messages from the real-time channel
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
