// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library:
//
//   - YAML configuration file
//   - .env files (loaded into the process environment with godotenv)
//   - Environment variables with the RESPKV_ prefix
//   - Maps, used for command-line flag overrides
//
// Environment variable names map to keys by dropping the prefix, lower
// casing and splitting on a double underscore, so single underscores stay
// inside key names:
//
//	RESPKV_SERVER__REDIS__MAX_CONNECTIONS -> server.redis.max_connections
//
// Priority (highest to lowest):
//
//  1. Command-line flags
//  2. Environment variables
//  3. Configuration file
//  4. Default values (pre-populated in the target struct)
//
// The Watcher reports configuration file changes via fsnotify.
package confloader
