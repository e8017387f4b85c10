// Package config loads the bridge's deploy-time configuration from YAML,
// with environment-variable overrides, following the teacher's plain-YAML
// configuration style.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentConfig is the ClientConfig input (§3), as loaded from YAML/env before
// normalization by client.NewConfig.
type AgentConfig struct {
	Endpoint       string `yaml:"endpoint"`
	AuthToken      string `yaml:"authToken"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	VerifySSL      *bool  `yaml:"verifySsl"`
}

// FrontEndConfig is the evaluation service's deploy-time configuration: the
// LLM model identifier, session-service connection string, and listen
// address (§6, "Configuration (per deployment)").
type FrontEndConfig struct {
	ListenAddr              string `yaml:"listenAddr"`
	LLMModel                string `yaml:"llmModel"`
	AnthropicAPIKeyEnv      string `yaml:"anthropicApiKeyEnv"`
	SessionServiceConn      string `yaml:"sessionServiceConn"`
	ResultStoreRedisAddr    string `yaml:"resultStoreRedisAddr"`
}

// Config is the top-level deployment configuration file.
type Config struct {
	Agent    AgentConfig    `yaml:"agent"`
	FrontEnd FrontEndConfig `yaml:"frontEnd"`
}

// Load reads and parses path, then applies environment overrides:
// A2AEVAL_AUTH_TOKEN overrides Agent.AuthToken, A2AEVAL_LISTEN_ADDR
// overrides FrontEnd.ListenAddr. This mirrors the teacher's pattern of
// keeping secrets out of checked-in YAML.
func Load(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if tok := os.Getenv("A2AEVAL_AUTH_TOKEN"); tok != "" {
		cfg.Agent.AuthToken = tok
	}
	if addr := os.Getenv("A2AEVAL_LISTEN_ADDR"); addr != "" {
		cfg.FrontEnd.ListenAddr = addr
	}
	return cfg, nil
}
