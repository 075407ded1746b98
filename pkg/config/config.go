// Package config provides configuration loading and validation for the
// simulation. It handles the YAML world file, environment variable
// substitution, and per-agent seeds.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Oracle provider names.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
	ProviderGoogle    = "google"
)

// Simulation defaults.
const (
	DefaultTickInterval        = 3 * time.Second
	DefaultRequestTimeout      = 60 * time.Second
	DefaultMaxPlanIterations   = 10
	DefaultReflectionThreshold = 500
	DefaultActivitySummaryTTL  = 20 * time.Second
	DefaultReflectionMemories  = 20
	DefaultPlanLengthHours     = 1.0
)

// Model defines one oracle model endpoint.
type Model struct {
	Provider    string  `yaml:"provider"`
	Name        string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	Host        string  `yaml:"host,omitempty"` // Ollama server URL
	MaxTokens   int     `yaml:"max_tokens,omitempty"`
	Temperature float32 `yaml:"temperature,omitempty"`
}

// Oracle configures the language model clients.
type Oracle struct {
	Primary        Model         `yaml:"primary"`
	Fallback       *Model        `yaml:"fallback,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
}

// Location defines one place in the world and the tools available there.
type Location struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tools       []string `yaml:"tools,omitempty"`
}

// AgentSeed defines one agent's identity at world-seed time.
type AgentSeed struct {
	Name            string   `yaml:"name"`
	PublicBio       string   `yaml:"public_bio"`
	PrivateBio      string   `yaml:"private_bio"`
	Directives      []string `yaml:"directives,omitempty"`
	Location        string   `yaml:"location"`
	AuthorizedTools []string `yaml:"authorized_tools,omitempty"`
}

// Sim holds the tunables of the step loop and executor.
type Sim struct {
	TickInterval        time.Duration `yaml:"tick_interval,omitempty"`
	MaxPlanIterations   int           `yaml:"max_plan_iterations,omitempty"`
	ReflectionThreshold int           `yaml:"reflection_threshold,omitempty"`
	ActivitySummaryTTL  time.Duration `yaml:"activity_summary_ttl,omitempty"`
	ReflectionMemories  int           `yaml:"reflection_memories,omitempty"`
	PlanLengthHours     float64       `yaml:"plan_length_hours,omitempty"`
}

// Config is the root of the world configuration file.
type Config struct {
	WorldName   string      `yaml:"world_name"`
	Locations   []Location  `yaml:"locations"`
	Agents      []AgentSeed `yaml:"agents"`
	Oracle      Oracle      `yaml:"oracle"`
	Sim         Sim         `yaml:"sim,omitempty"`
	DBPath      string      `yaml:"db_path,omitempty"`
	EventLogDir string      `yaml:"event_log_dir,omitempty"`
	MetricsAddr string      `yaml:"metrics_addr,omitempty"`
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// expandEnv replaces ${VAR} references with environment variable values.
// Unset variables expand to the empty string, caught later by Validate.
func expandEnv(raw []byte) []byte {
	return envVarPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// Load reads, expands, parses, and validates a world configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expandEnv(raw), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Sim.TickInterval <= 0 {
		c.Sim.TickInterval = DefaultTickInterval
	}
	if c.Sim.MaxPlanIterations <= 0 {
		c.Sim.MaxPlanIterations = DefaultMaxPlanIterations
	}
	if c.Sim.ReflectionThreshold <= 0 {
		c.Sim.ReflectionThreshold = DefaultReflectionThreshold
	}
	if c.Sim.ActivitySummaryTTL <= 0 {
		c.Sim.ActivitySummaryTTL = DefaultActivitySummaryTTL
	}
	if c.Sim.ReflectionMemories <= 0 {
		c.Sim.ReflectionMemories = DefaultReflectionMemories
	}
	if c.Sim.PlanLengthHours <= 0 {
		c.Sim.PlanLengthHours = DefaultPlanLengthHours
	}
	if c.Oracle.RequestTimeout <= 0 {
		c.Oracle.RequestTimeout = DefaultRequestTimeout
	}
	if c.DBPath == "" {
		c.DBPath = "simworld.db"
	}
	if c.EventLogDir == "" {
		c.EventLogDir = "logs"
	}
}

func validModel(m *Model) error {
	switch m.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
		if m.APIKey == "" {
			return fmt.Errorf("provider %s requires an api_key", m.Provider)
		}
	case ProviderOllama:
		// Local runtime, no key needed.
	default:
		return fmt.Errorf("unknown provider %q", m.Provider)
	}
	if m.Name == "" {
		return fmt.Errorf("provider %s requires a model name", m.Provider)
	}
	return nil
}

// Validate checks structural invariants of the configuration.
func (c *Config) Validate() error {
	if c.WorldName == "" {
		return fmt.Errorf("world_name is required")
	}
	if len(c.Locations) == 0 {
		return fmt.Errorf("at least one location is required")
	}
	if len(c.Agents) == 0 {
		return fmt.Errorf("at least one agent is required")
	}

	locations := make(map[string]bool, len(c.Locations))
	for i := range c.Locations {
		loc := &c.Locations[i]
		if loc.Name == "" {
			return fmt.Errorf("location %d has no name", i)
		}
		if locations[loc.Name] {
			return fmt.Errorf("duplicate location name %q", loc.Name)
		}
		locations[loc.Name] = true
	}

	names := make(map[string]bool, len(c.Agents))
	for i := range c.Agents {
		seed := &c.Agents[i]
		if seed.Name == "" {
			return fmt.Errorf("agent %d has no name", i)
		}
		if names[seed.Name] {
			return fmt.Errorf("duplicate agent name %q", seed.Name)
		}
		names[seed.Name] = true
		if !locations[seed.Location] {
			return fmt.Errorf("agent %q starts at unknown location %q", seed.Name, seed.Location)
		}
	}

	if err := validModel(&c.Oracle.Primary); err != nil {
		return fmt.Errorf("oracle primary: %w", err)
	}
	if c.Oracle.Fallback != nil {
		if err := validModel(c.Oracle.Fallback); err != nil {
			return fmt.Errorf("oracle fallback: %w", err)
		}
	}

	return nil
}

// LocationNames returns the names of all configured locations.
func (c *Config) LocationNames() []string {
	names := make([]string, len(c.Locations))
	for i := range c.Locations {
		names[i] = c.Locations[i].Name
	}
	return names
}

// String renders the config for logging with API keys redacted.
func (c *Config) String() string {
	redacted := *c
	redacted.Oracle.Primary.APIKey = redact(c.Oracle.Primary.APIKey)
	if c.Oracle.Fallback != nil {
		fb := *c.Oracle.Fallback
		fb.APIKey = redact(fb.APIKey)
		redacted.Oracle.Fallback = &fb
	}
	out, err := yaml.Marshal(&redacted)
	if err != nil {
		return fmt.Sprintf("Config{world=%s}", c.WorldName)
	}
	return strings.TrimSpace(string(out))
}

func redact(key string) string {
	if key == "" {
		return ""
	}
	return "***"
}
