package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/psws/g2console/internal/errors"
)

const (
	// ConfigFileName is the config file looked for in the working directory.
	ConfigFileName = "g2console.yaml"
	// GlobalConfigDir is the per-user config directory under $HOME.
	GlobalConfigDir = ".config/g2console"
	// GlobalConfigFile is the per-user config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. G2_FEED_PIPE.
	EnvPrefix = "G2"
)

// Load reads config from the specified path, with defaults for every key
// the file leaves out and G2_* environment overrides applied on top.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'g2console init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. g2console.yaml in the current directory
// 3. ~/.config/g2console/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	if cwd, err := os.Getwd(); err == nil {
		local := filepath.Join(cwd, ConfigFileName)
		if _, err := os.Stat(local); err == nil {
			return local, nil
		}
	}

	if global := GlobalConfigPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalConfigPath returns ~/.config/g2console/config.yaml, or "" when the
// home directory is unknown.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads the config Find locates, or defaults (plus
// environment overrides) when there is none. It returns the path used.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}
	if path == "" {
		cfg, err := parseConfig(newViper(), "defaults")
		return cfg, "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// Save writes cfg as YAML to path, creating parent directories.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config YAML", "")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot create config directory "+filepath.Dir(path),
			"Check directory permissions")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write "+path,
			"Check file permissions")
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so file, env and defaults merge per key.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("feed.pipe", d.Feed.Pipe)
	v.SetDefault("gps.source", d.GPS.Source)
	v.SetDefault("gps.device", d.GPS.Device)
	v.SetDefault("gps.baud", d.GPS.Baud)
	v.SetDefault("gps.read_timeout", d.GPS.ReadTimeout)
	v.SetDefault("gps.gpsd_address", d.GPS.GPSDAddress)
	v.SetDefault("gps.daemon_process", d.GPS.DaemonProcess)
	v.SetDefault("controller.process", d.Controller.Process)
	v.SetDefault("controller.command", d.Controller.Command)
	v.SetDefault("controller.output", d.Controller.Output)
	v.SetDefault("controller.settle", d.Controller.Settle)
	v.SetDefault("controller.autorun", d.Controller.Autorun)
	v.SetDefault("station.node_file", d.Station.NodeFile)
	v.SetDefault("station.rfgain_file", d.Station.RFGainFile)
	v.SetDefault("logging.dir", d.Logging.Dir)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("display.mode", d.Display.Mode)
	v.SetDefault("display.refresh", d.Display.Refresh)
	v.SetDefault("display.magnetometer_policy", d.Display.MagnetometerPolicy)
	v.SetDefault("display.color", d.Display.Color)
	v.SetDefault("metrics.address", d.Metrics.Address)
	v.SetDefault("shutdown_grace", d.ShutdownGrace)
}

// parseConfig converts viper config to our Config struct.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+path)
	}

	cfg.Feed.Pipe = expandPath(cfg.Feed.Pipe)
	cfg.Controller.Output = expandPath(cfg.Controller.Output)
	cfg.Station.NodeFile = expandPath(cfg.Station.NodeFile)
	cfg.Station.RFGainFile = expandPath(cfg.Station.RFGainFile)
	cfg.Logging.Dir = expandPath(cfg.Logging.Dir)

	return cfg, nil
}

func expandPath(p string) string {
	return ExpandTilde(Expand(p))
}
