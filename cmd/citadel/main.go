// Citadel is a password policy governance service for directory-backed
// stores.
//
// It validates policy attribute bounds before every write, keeps a
// process-wide cache of valid policy names for fast membership checks, and
// records every administrative mutation to a durable audit trail.
//
// Usage:
//
//	# Start the admin server with default configuration
//	citadel run
//
//	# Start with a custom configuration file
//	citadel run --config /etc/citadel/config.yaml
//
//	# Manage policies directly against the configured store
//	citadel policy add --name safe1 --min-length 8 --max-failure 5
//	citadel policy search --prefix safe
//	citadel policy check safe1
//
//	# Execute a bulk deletion manifest
//	citadel bulk-delete --file delpolicy.yaml
//
//	# Show version information
//	citadel version
package main

func main() {
	Execute()
}
