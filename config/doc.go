// Package config loads the flowc configuration with Viper.
//
// Values come from a YAML file (flowc.yml in the working directory, under
// ./config, or in the user config directory), then a .env file, then
// FLOWC_-prefixed environment variables:
//
//	FLOWC_LOGGING_LEVEL=debug
//	FLOWC_COMPILER_DEFAULT_TARGET=vector
//	FLOWC_NATIVE_WORKERS=4
//
// Load applies defaults and validates the result.
package config
