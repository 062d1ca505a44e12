// Package generation defines the boundary between the application core and
// external LLM services. The core asks a Generator for card drafts from a
// source text and never sees provider-specific types or wire formats.
package generation
