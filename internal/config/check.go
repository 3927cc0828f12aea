package config

import "os"

// Check loads and fully validates a configuration file, reporting every
// problem at once instead of stopping at the first. On success it returns
// the loaded config; when anything is wrong it returns a *ConfigError
// aggregating unresolved ${VAR} placeholders and validation failures.
func Check(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	cerr := &ConfigError{
		Path:    path,
		Missing: unresolvedEnvVars(path),
		Errors:  cfg.Validate(),
	}
	if cerr.HasErrors() {
		return cfg, cerr
	}
	return cfg, nil
}

// unresolvedEnvVars lists ${VAR} references in the file whose variable is
// not set in the environment. Load leaves these untouched, so they surface
// as literal placeholder strings at runtime.
func unresolvedEnvVars(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var missing []string
	for _, m := range envVarPattern.FindAllStringSubmatch(string(data), -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		if _, ok := os.LookupEnv(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
