package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"livecricket.dev/scoring/internal/consensus"
	"livecricket.dev/scoring/internal/model"
)

// LoadDefaultRules reads a named match ruleset (§3, §4.5) from a YAML
// document at path. A deployment can ship one file with several presets
// ("t20", "odi", "test") and select one at match-creation time without a
// redeploy.
func LoadDefaultRules(path string) (map[string]model.MatchRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read default rules: %w", err)
	}

	var presets map[string]model.MatchRules
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse default rules: %w", err)
	}
	return presets, nil
}

// consensusPolicyDoc mirrors consensus.Policy's fields but keeps the
// matching window in whole seconds on the wire, since yaml.Unmarshal would
// otherwise read a bare integer as nanoseconds.
type consensusPolicyDoc struct {
	WindowSeconds       int  `yaml:"windowSeconds"`
	WindowEvents        int  `yaml:"windowEvents"`
	SingleScorerAllowed bool `yaml:"singleScorerAllowed"`
}

// LoadConsensusPolicy reads the matching-window policy (§4.4) C4's engine
// is constructed with from a YAML document at path.
func LoadConsensusPolicy(path string) (consensus.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return consensus.Policy{}, fmt.Errorf("read consensus policy: %w", err)
	}

	var doc consensusPolicyDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return consensus.Policy{}, fmt.Errorf("parse consensus policy: %w", err)
	}
	return consensus.Policy{
		WindowDuration:      time.Duration(doc.WindowSeconds) * time.Second,
		WindowEvents:        doc.WindowEvents,
		SingleScorerAllowed: doc.SingleScorerAllowed,
	}, nil
}
