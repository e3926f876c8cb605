// Courier generates a daily newsletter with narration, serves it over HTTP
// and prunes old issues on a fixed retention policy.
//
// Usage:
//
//	# Start the API and the daily cleanup job
//	courier serve --config /etc/courier/config.yaml
//
//	# Generate one issue synchronously
//	courier generate --date 2025-06-01
//
//	# Preview and run retention
//	courier cleanup stats
//	courier cleanup run
//
//	# Show version information
//	courier version
package main

func main() {
	Execute()
}
