// aigate is a cost-aware admission control and cache validity layer for
// AI-generation calls.
//
// It gates every AI capability invocation behind tier-scaled rolling
// window quotas and daily spend ceilings, and keeps semantically empty
// generation results out of the cache.
//
// Usage:
//
//	# Start the service with default configuration
//	aigate run
//
//	# Start with a custom configuration file
//	aigate run --config /etc/aigate/config.yaml
//
//	# Run one cache sweep pass and exit
//	aigate sweep
//
//	# Report a user's usage and warnings
//	aigate usage --user farmer-17 --tier premium
//
//	# Validate a configuration file
//	aigate validate --config /etc/aigate/config.yaml
//
//	# Show version information
//	aigate version
package main

func main() {
	Execute()
}
