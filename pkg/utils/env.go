package utils

import "os"

// Getenv reads an environment variable, substituting fallback when the
// variable is unset or empty. Startup config treats empty as unset so a
// blank entry in a .env file cannot blank out a connection parameter.
func Getenv(key, fallback string) string {
	value := os.Getenv(key)
	if len(value) == 0 {
		return fallback
	}
	return value
}
