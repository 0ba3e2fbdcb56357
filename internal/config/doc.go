// Package config provides centralized configuration management for salespulse.
// It handles loading configuration from multiple sources, validation, and
// path resolution for the input tables and generated reports.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default() values (lowest priority)
//
// The YAML file is the one named by SALES_CONFIG_FILE, or the first of
// config.yaml and configs/config.yaml found relative to the working directory.
//
// # Environment Variables
//
// All environment variables follow the pattern SALES_<SECTION>_<FIELD>:
//
//	SALES_SERVER_PORT=8080
//	SALES_LOGGING_LEVEL=debug
//	SALES_PATHS_DATA_DIR=/srv/sales
//	SALES_DOMAIN_ALLOWLIST=Produce,Grain
//	SALES_DOMAIN_TIER_THRESHOLDS_A=80
//	SALES_PERIOD_ENABLED=false
//
// List values are comma separated. Product names that themselves contain
// commas belong in the YAML file.
//
// # Domain Filter
//
// The denylist (product names) and allowlist (category names) are plain
// configuration. Both may be empty; an empty allowlist keeps nothing.
//
//	domain:
//	  allowlist: [Produce, Beverages]
//	  denylist:
//	    - "Salmon - Atlantic, Skin On"
//	  tier_thresholds: {a: 70, b: 90}
//
// # Validation
//
// Load validates every section with go-playground/validator struct tags and
// checks 0 < A < B <= 100 for the tier thresholds.
package config
