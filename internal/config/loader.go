package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envPattern matches ${VAR} and ${VAR:-default} placeholders in the
// raw config text. Defaults may contain any character except an
// unescaped closing brace.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// Load reads the wrench configuration at path: environment placeholders
// are substituted into the raw YAML before parsing, so secrets like
// audit paths or MCP server credentials never need to live in the file.
//
// A placeholder with neither an environment value nor a default fails
// the load. All unresolved names are reported in one error so a broken
// deployment surfaces every missing variable in a single run.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var unresolved []string
	expanded := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		groups := envPattern.FindSubmatch(match)
		name := string(groups[1])

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if groups[2] != nil {
			return groups[2]
		}

		unresolved = append(unresolved, name)
		return match
	})
	if len(unresolved) > 0 {
		return nil, fmt.Errorf("config: %s: unresolved variables: %s",
			path, strings.Join(unresolved, ", "))
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return &cfg, nil
}
