package env

import (
	"os"
	"path/filepath"
	"strings"
)

// Environment is a named set of variables, such as "dev" or "staging".
type Environment struct {
	Name      string
	Variables map[string]any
}

// LoadEnvironment assembles the variables for envName: the matching config
// section first, then .env and .env.<name> files in dir, later sources
// overriding earlier ones. Missing .env files are ignored.
func LoadEnvironment(dir, envName string, configEnvs map[string]map[string]any) (*Environment, error) {
	env := &Environment{
		Name:      envName,
		Variables: make(map[string]any),
	}

	if vars, ok := configEnvs[envName]; ok {
		for k, v := range vars {
			env.Variables[k] = v
		}
	}

	files := []string{".env"}
	if envName != "" {
		files = append(files, ".env."+envName)
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		vars, err := LoadDotEnv(path)
		if err != nil {
			return nil, err
		}
		for k, v := range vars {
			env.Variables[k] = v
		}
	}

	return env, nil
}

// MergeVariables merges maps left to right; later keys win.
func MergeVariables(sources ...map[string]any) map[string]any {
	result := make(map[string]any)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}

// LoadSystemEnv returns process environment variables starting with
// prefix, with the prefix removed. An empty prefix returns everything.
func LoadSystemEnv(prefix string) map[string]any {
	result := make(map[string]any)
	for _, e := range os.Environ() {
		key, value, ok := strings.Cut(e, "=")
		if !ok {
			continue
		}
		if prefix == "" {
			result[key] = value
		} else if len(key) > len(prefix) && strings.HasPrefix(key, prefix) {
			result[key[len(prefix):]] = value
		}
	}
	return result
}
