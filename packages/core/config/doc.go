// Package config loads project configuration.
//
// A config file is YAML (hitassert.yaml, hitassert.yml, .hitassert.yaml) or
// JSON (hitassert.config.json, .hitassertrc). Values from the file are
// merged over DefaultConfig; command line flags are merged over the result.
// The environments section supplies per-environment variables.
package config
