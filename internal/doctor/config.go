package doctor

import (
	"fmt"
	"strings"

	"github.com/psws/g2console/internal/config"
)

// ConfigFileCheck verifies that a config file exists.
type ConfigFileCheck struct {
	ConfigPath string // Explicit path, or empty to search
	// Target is where Fix writes a default config. Empty uses the global path.
	Target string
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run() CheckResult {
	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Error finding config: " + firstLine(err),
			Suggestion: "Check the --config path, or run 'g2console init' to create a config",
		}
	}

	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using stock station defaults",
			Suggestion: "Run 'g2console init' to create " + config.ConfigFileName,
			Fixable:    true,
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Config file: " + path,
	}
}

// Fix writes the default config when none exists.
func (c *ConfigFileCheck) Fix() error {
	if path, err := config.Find(c.ConfigPath); err != nil || path != "" {
		return err
	}
	target := c.Target
	if target == "" {
		target = config.GlobalConfigPath()
	}
	if target == "" {
		return fmt.Errorf("no home directory for %s", config.GlobalConfigFile)
	}
	return config.Save(config.DefaultConfig(), target)
}

// ConfigValidCheck verifies that the config loads and passes validation.
type ConfigValidCheck struct {
	ConfigPath string
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return CategoryConfig }

func (c *ConfigValidCheck) Run() CheckResult {
	cfg, _, err := config.LoadOrDefault(c.ConfigPath)
	if err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Failed to load config: " + firstLine(err),
			Suggestion: "Check the YAML syntax in your config file",
		}
	}

	if err := config.Validate(cfg); err != nil {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    "Invalid config: " + firstLine(err),
			Suggestion: "Fix the reported setting, or regenerate with 'g2console init'",
		}
	}

	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "Config valid",
	}
}

func (c *ConfigValidCheck) Fix() error {
	return nil // Invalid settings need a human
}

// NewConfigChecks creates the CONFIG category checks.
func NewConfigChecks(configPath string) []Check {
	return []Check{
		&ConfigFileCheck{ConfigPath: configPath},
		&ConfigValidCheck{ConfigPath: configPath},
	}
}

// firstLine returns the first non-empty line of err's message, without the
// failure symbol structured errors print with.
func firstLine(err error) string {
	for _, l := range strings.Split(err.Error(), "\n") {
		l = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l), "✗"))
		if l != "" {
			return l
		}
	}
	return ""
}
