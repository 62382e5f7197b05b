package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	domainConfig "github.com/secmon-lab/meetsync/pkg/domain/model/config"
	"github.com/urfave/cli/v3"
)

// Policy holds the CLI flag pointing to the scheduling policy file
type Policy struct {
	path string
}

// Flags returns CLI flags for policy configuration
func (p *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "policy-file",
			Usage:       "Path to TOML policy file with scheduling tunables (omit to use defaults)",
			Sources:     cli.EnvVars("MEETSYNC_POLICY_FILE"),
			Destination: &p.path,
		},
	}
}

// Configure loads the policy file, or the built-in defaults when no
// file is configured.
func (p *Policy) Configure() (*domainConfig.Policy, error) {
	if p.path == "" {
		return domainConfig.DefaultPolicy(), nil
	}

	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read policy file", goerr.V("path", p.path))
	}

	var policy domainConfig.Policy
	if err := toml.Unmarshal(data, &policy); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML policy", goerr.V("path", p.path))
	}

	policy.Normalize()
	if err := policy.Validate(); err != nil {
		return nil, goerr.Wrap(err, "policy validation failed", goerr.V("path", p.path))
	}

	return &policy, nil
}
