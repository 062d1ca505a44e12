// Package domain defines the core business entities and the status state
// machines that govern them.
package domain
