// Package logging provides leveled logging with environment-based configuration.
//
// The log level is controlled by the LOG_LEVEL environment variable
// (debug, info, warn, error) or the DEBUG variable as a shortcut for
// debug-level output.
package logging
