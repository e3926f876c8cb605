// Package config provides configuration management for courier.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("courier.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention COURIER_SECTION_FIELD.
// For example:
//
//   - COURIER_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - COURIER_PROVIDERS_CONTENT_API_KEY overrides providers.content.api_key
//   - COURIER_SECURITY_ADMIN_SECRET overrides security.admin_secret
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
// For process-wide access, call Initialize once at startup and GetConfig
// afterwards. ReloadConfig swaps the instance atomically; a Watcher calls it
// when the file changes on disk.
package config
