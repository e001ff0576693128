// Package config provides centralized configuration management for taskgate.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML configuration file (config.yaml, configs/config.yaml or TASKGATE_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern TASKGATE_<SECTION>_<FIELD>:
//
//	TASKGATE_SERVER_PORT=8080
//	TASKGATE_REMOTE_ACTIVATION_URL=https://license.example.com/activate
//	TASKGATE_REMOTE_SUBMISSION_URL=https://api.example.com/submit_task
//	TASKGATE_STORAGE_DRIVER=sqlite
//	TASKGATE_LOGGING_LEVEL=debug
//
// # Path Management
//
// Relative paths are anchored at the base directory (the executable directory
// unless TASKGATE_BASE_DIR is set):
//
//	paths, err := config.GetPaths(cfg.BaseDir)
//	storePath := cfg.StorePath(paths)
package config
