// Package audit records every successful policy mutation to a durable
// trail.
//
// The Recorder accepts change events from the policy manager and writes
// them asynchronously through a buffered channel so administrative
// operations never block on audit I/O. Records are persisted by a Sink;
// the production sink is SQLite. A Pruner enforces the retention window,
// optionally driven by a cron Scheduler.
package audit
