// Package config provides YAML configuration loading, validation, and file
// watching for the identity gateway. Configuration files support environment
// variable substitution with ${VAR} and ${VAR:-default} syntax.
package config
