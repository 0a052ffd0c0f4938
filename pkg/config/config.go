package config

import (
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
	"sigs.k8s.io/yaml"
)

const ConfigFileEnvVar = "SHELLEXEC_CONFIG_FILE"

// Config holds defaults for the shellexec CLI. Flags override every field.
type Config struct {
	WorkDir        string   `json:"workDir,omitempty"`
	Timeout        Duration `json:"timeout,omitempty"`
	PollInterval   Duration `json:"pollInterval,omitempty"`
	Shell          string   `json:"shell,omitempty"`
	MaxPIDAttempts int      `json:"maxPidAttempts,omitempty"`
	MarkerPrefix   string   `json:"markerPrefix,omitempty"`

	filename string
}

// Duration accepts Go duration strings ("1.5s") or a bare number of seconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		v, err := time.ParseDuration(s[1 : len(s)-1])
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var seconds float64
	if _, err := fmt.Sscan(s, &seconds); err != nil {
		return fmt.Errorf("invalid duration %s: %w", s, err)
	}
	*d = Duration(seconds * float64(time.Second))
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

func (c *Config) GetFilename() string {
	return c.filename
}

// Read loads the config from configFile, $SHELLEXEC_CONFIG_FILE, or
// $XDG_CONFIG_HOME/shellexec/config.yaml, in that order. A missing file
// yields an empty Config.
func Read(configFile string) (*Config, error) {
	if configFile == "" {
		if configFile = os.Getenv(ConfigFileEnvVar); configFile == "" {
			var err error
			if configFile, err = xdg.ConfigFile("shellexec/config.yaml"); err != nil {
				return nil, fmt.Errorf("failed to locate config in standard location: %w", err)
			}
		}
	}

	data, err := readFile(configFile)
	if err != nil {
		return nil, err
	}

	result := &Config{
		filename: configFile,
	}
	if err := yaml.Unmarshal(data, result); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", configFile, err)
	}
	return result, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []byte("{}"), nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	return data, nil
}
