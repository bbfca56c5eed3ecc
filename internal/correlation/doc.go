// Package correlation provides the persistence layer for correlations:
// logical groupings of process-instance executions that share a business
// identifier, possibly spanning multiple process models and parent/child
// subprocess relationships.
//
// One row is written per process instance participating in a correlation;
// correlation_id is deliberately NOT unique. process_instance_id uniquely
// identifies a single row. Rows start in state "running" and are finalized
// to "finished" or "error"; the store does not prevent re-finalizing an
// already-terminal row (the second write silently overwrites the first).
//
// # Query contract
//
//   - GetByCorrelationID, GetByProcessModelID and GetByProcessInstanceID
//     fail with NotFoundError when nothing matches.
//   - GetAll, GetSubprocesses and GetByState return empty collections
//     instead.
//   - Multi-row results keyed by an identifier are ordered by created_at
//     ascending, with process_instance_id as a deterministic tiebreak.
//
// # Concurrency
//
// All operations share one connection acquired from an injected
// ConnectionProvider; Initialize is safe for overlapping callers and never
// opens duplicate connections. The two finalize operations are
// read-then-write with no transactional isolation: concurrent finalizes
// racing on the same correlation id may lose an update (last write wins).
//
// Identity and error payloads cross the storage boundary as JSON TEXT and
// are decoded back into typed values on every read path.
package correlation
