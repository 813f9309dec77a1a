// Package bulk implements batch deletion of password policies driven by
// YAML manifests.
//
// A manifest is an ordered list of "to delete" entries with no behavior of
// its own: it is not validated or deduplicated. The Loader drains a
// manifest one entry at a time through the policy manager's Delete
// operation, continuing past per-entry failures and collecting the
// outcomes. The Watcher turns a drop directory into a spool: manifest
// files written there are executed and removed.
package bulk
