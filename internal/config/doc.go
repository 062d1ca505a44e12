// Package config defines the application's configuration structure and
// loading from environment variables and optional config files.
package config
