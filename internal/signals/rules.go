// Package signals extracts the rule-based evidence that complements the
// classifier: the working company name, email-domain heuristics and scam
// phrase hits.
package signals

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"jobmate/verifier-service/internal/textmatch"
)

//go:embed rules.yml
var defaultRulesYAML []byte

// Rules holds the fixed lists the heuristics compare against.
type Rules struct {
	FreeProviders   []string `yaml:"free_providers"`
	DisposableHints []string `yaml:"disposable_hints"`
	ScamPhrases     []string `yaml:"scam_phrases"`
}

// DefaultRules returns the lists shipped with the binary.
func DefaultRules() Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(fmt.Sprintf("signals: embedded rules.yml: %v", err))
	}
	return r
}

// LoadRules reads a rules file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %q: %w", path, err)
	}
	return ParseRules(b)
}

// ParseRules decodes a YAML rules document, normalizing every entry and
// dropping blanks. List order is preserved.
func ParseRules(b []byte) (Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(b, &r); err != nil {
		return Rules{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	r.FreeProviders = cleanList(r.FreeProviders)
	r.DisposableHints = cleanList(r.DisposableHints)
	r.ScamPhrases = cleanList(r.ScamPhrases)
	if len(r.ScamPhrases) == 0 {
		return Rules{}, fmt.Errorf("scam_phrases must have at least 1 entry")
	}
	return r, nil
}

func cleanList(xs []string) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		x = textmatch.Normalize(x)
		if x == "" {
			continue
		}
		out = append(out, x)
	}
	return out
}
