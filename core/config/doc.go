// Package config provides configuration management for bibsync.
//
// It utilizes Viper for loading configuration from an optional config.yaml,
// a .env file and environment variables. Defaults come from the `default`
// struct tags of each section.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Storage: S3/MinIO credentials for s3:// document locations
//   - Log: Logging level and format
//   - Database: scan history database (sqlite or mysql)
//   - Scan: fuzzy match threshold
//   - Changes: location root for the HTTP API and watcher debounce
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Scan.MatchThreshold)
package config
