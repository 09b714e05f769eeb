package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/felixgeelhaar/oversight/domain/config"
)

// envExpander expands environment variables in configuration strings.
type envExpander struct {
	// strict fails if a referenced variable is not set.
	strict bool
	// missing tracks missing environment variables.
	missing []string
}

// bracketPattern matches ${VAR} and ${VAR:-default}.
var bracketPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*)?\}`)

// Expand expands environment variables in the input string.
// Supported patterns:
//   - ${VAR} - expands to the value of VAR
//   - ${VAR:-default} - expands to VAR or "default" if not set
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := bracketPattern.ReplaceAllStringFunc(input, func(match string) string {
		inner := match[2 : len(match)-1] // Remove ${ and }

		parts := strings.SplitN(inner, ":-", 2)
		varName := parts[0]

		value, exists := os.LookupEnv(varName)
		if exists {
			return value
		}
		if len(parts) > 1 {
			return parts[1]
		}

		e.missing = append(e.missing, varName)
		return ""
	})

	if e.strict && len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s",
			domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}

	return result, nil
}
