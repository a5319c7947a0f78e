// Package env reads environment variables that must be available before
// the config layer is loaded, such as logger bootstrap settings.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
