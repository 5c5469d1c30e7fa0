// Package static provides a mock classifier provider that returns a static,
// pre-determined judgment. This is useful for testing the orchestrator
// and other parts of the system without making live API calls.
package static
