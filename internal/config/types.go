package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete g2console.yaml configuration file.
type Config struct {
	Version    int              `yaml:"version" mapstructure:"version"`
	Feed       FeedConfig       `yaml:"feed" mapstructure:"feed"`
	GPS        GPSConfig        `yaml:"gps" mapstructure:"gps"`
	Controller ControllerConfig `yaml:"controller" mapstructure:"controller"`
	Station    StationConfig    `yaml:"station" mapstructure:"station"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
	Display    DisplayConfig    `yaml:"display" mapstructure:"display"`
	Metrics    MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`

	// ShutdownGrace bounds how long the console waits for its workers to
	// finish after the dashboard exits.
	ShutdownGrace time.Duration `yaml:"shutdown_grace" mapstructure:"shutdown_grace"`
}

// FeedConfig locates the sensor data stream.
type FeedConfig struct {
	// Pipe is the named pipe the data controller writes JSON lines to.
	Pipe string `yaml:"pipe" mapstructure:"pipe"`
}

// GPSConfig selects and configures the GPS source.
type GPSConfig struct {
	// Source is "auto", "serial" or "gpsd". Auto uses gpsd when the
	// daemon process is running and the serial port otherwise.
	Source        string        `yaml:"source" mapstructure:"source"`
	Device        string        `yaml:"device" mapstructure:"device"`
	Baud          int           `yaml:"baud" mapstructure:"baud"`
	ReadTimeout   time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	GPSDAddress   string        `yaml:"gpsd_address" mapstructure:"gpsd_address"`
	DaemonProcess string        `yaml:"daemon_process" mapstructure:"daemon_process"`
}

// ControllerConfig describes the data controller process.
type ControllerConfig struct {
	// Process is the name searched for in the process table.
	Process string `yaml:"process" mapstructure:"process"`

	// Command is the argv used to launch the controller.
	Command []string `yaml:"command" mapstructure:"command"`

	// Output captures the controller's stdout/stderr. Empty discards it.
	Output string `yaml:"output" mapstructure:"output"`

	// Settle is the pause after each control command.
	Settle time.Duration `yaml:"settle" mapstructure:"settle"`

	// Autorun launches the controller at startup without waiting for 'r'.
	Autorun bool `yaml:"autorun" mapstructure:"autorun"`
}

// StationConfig points at the read-only station metadata files.
type StationConfig struct {
	NodeFile   string `yaml:"node_file" mapstructure:"node_file"`
	RFGainFile string `yaml:"rfgain_file" mapstructure:"rfgain_file"`
}

// LoggingConfig locates the console log.
type LoggingConfig struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	File string `yaml:"file" mapstructure:"file"`
}

// DisplayConfig controls the dashboard.
type DisplayConfig struct {
	// Mode is the initial min/max window: "daily" or "hourly".
	Mode string `yaml:"mode" mapstructure:"mode"`

	// Refresh is the redraw interval.
	Refresh time.Duration `yaml:"refresh" mapstructure:"refresh"`

	// MagnetometerPolicy is "magnitude" or "signed".
	MagnetometerPolicy string `yaml:"magnetometer_policy" mapstructure:"magnetometer_policy"`

	// Color is "auto" or "never".
	Color string `yaml:"color" mapstructure:"color"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Address to serve /metrics on, e.g. ":9273". Empty disables.
	Address string `yaml:"address" mapstructure:"address"`
}

// DefaultConfig returns a Config matching a stock Grape 2 station.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Feed: FeedConfig{
			Pipe: "/home/pi/PSWS/Sstat/datamon.fifo",
		},
		GPS: GPSConfig{
			Source:        "auto",
			Device:        "/dev/ttyS0",
			Baud:          115200,
			ReadTimeout:   500 * time.Millisecond,
			GPSDAddress:   "localhost:2947",
			DaemonProcess: "gpsd",
		},
		Controller: ControllerConfig{
			Process: "datactrlr",
			Command: []string{"sudo", "/home/pi/G2User/datactrlr", "-l"},
			Settle:  100 * time.Millisecond,
		},
		Station: StationConfig{
			NodeFile:   "/home/pi/PSWS/Sinfo/NodeNum.txt",
			RFGainFile: "/home/pi/PSWS/Sinfo/RFGain.txt",
		},
		Logging: LoggingConfig{
			Dir:  "/home/pi/G2DATA/Slogs",
			File: "console.log",
		},
		Display: DisplayConfig{
			Mode:               "daily",
			Refresh:            500 * time.Millisecond,
			MagnetometerPolicy: "magnitude",
			Color:              "auto",
		},
		ShutdownGrace: 3 * time.Second,
	}
}
