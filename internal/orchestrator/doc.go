// Package orchestrator turns incoming content requests into durable,
// deduplicated, quota-checked records and fans them out to the configured
// acquisition targets.
//
// Submissions for the same content id are serialized; everything else runs
// concurrently. Acquisition and notification failures degrade per target
// and never change the outcome reported upstream.
package orchestrator
