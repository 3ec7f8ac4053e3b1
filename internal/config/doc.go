// Package config handles configuration loading, parsing, and validation
// from environment variables and an optional config file. It provides
// type-safe settings for the server and for the watch client while keeping
// configuration details separate from business logic.
package config
