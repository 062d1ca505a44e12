// Package service orchestrates the capture-to-review lifecycle on top of the
// store interfaces. Services own transaction boundaries and status
// transitions; handlers stay thin and stores stay dumb.
package service
