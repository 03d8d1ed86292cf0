// Package journal records the lifecycle events of a single run in an
// in-memory SQLite database so they can be queried after the run.
//
// A Journal is an events.Handler. Every event is stamped with a logical
// sequence number from a Clock and the run's ID. Reads always order by seq,
// so the trace comes back exactly as the runner emitted it.
//
// Journals are per-run. Nothing is shared between runs, and an in-memory
// journal disappears when it is closed.
//
// Schema:
//
//	runs(id, label, created_seq)
//	events(seq, run_id, type, test_name, test_path, elapsed_ns, reason, error, output)
package journal
