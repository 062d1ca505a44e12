// Package store defines the repository boundary: persistence interfaces for
// sources, cards, tags and review logs, plus transaction helpers. The core
// depends on these interfaces only, never on a concrete storage engine.
package store
