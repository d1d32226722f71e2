// Package services holds cross-cutting support for pipeline components:
// the sentinel error taxonomy that classifies conversion failures, and
// context annotations that carry job identifiers through blocking calls.
package services
