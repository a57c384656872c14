// Package services provides shared error classification and context
// annotation helpers used across the matching pipeline.
package services
