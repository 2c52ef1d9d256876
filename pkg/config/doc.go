// Package config loads environment-based configuration structs.
//
// Every component in this module declares its own Config struct with `env`
// tags and sensible envDefault values; config.Load parses it once per
// process and caches the result by type. Required values (store connection
// strings) use the `required` tag option and fail loading when absent.
package config
