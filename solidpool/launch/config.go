package launch

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Backend           string  `yaml:"backend"`
	Endpoint          string  `yaml:"endpoint"`
	Principal         string  `yaml:"principal"`
	Credential        string  `yaml:"credential"`
	Database          string  `yaml:"database"`
	HeartData         string  `yaml:"heart_data"`
	MinSize           *uint32 `yaml:"min_size"`
	MaxSize           *uint32 `yaml:"max_size"`
	AcquireTimeoutMS  *int64  `yaml:"acquire_timeout_ms"`
	MaxIdleTimeMS     *int64  `yaml:"max_idle_time_ms"`
	DialLimit         *uint32 `yaml:"dial_limit"`
	ValidateOnRelease *bool   `yaml:"validate_on_release"`
	BlockOnExhaustion *bool   `yaml:"block_on_exhaustion"`
	RunDir            string  `yaml:"run_dir"`
	AdminPort         string  `yaml:"admin_port"`
	LogLevel          string  `yaml:"log_level"`
}

func defaultConfig() *poolConfig {
	return &poolConfig{
		Backend:           "tcp",
		MinSize:           0,
		MaxSize:           16,
		BlockOnExhaustion: true,
		RunDir:            "/tmp/solidpool",
		AdminPort:         ":7070",
		LogLevel:          "debug",
	}
}

// loadConfigFile overlays a YAML file on the defaults; env vars still win.
func loadConfigFile(path string, config *poolConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return err
	}

	if fc.Backend != "" {
		config.Backend = fc.Backend
	}
	if fc.Endpoint != "" {
		config.Endpoint = fc.Endpoint
	}
	if fc.Principal != "" {
		config.Principal = fc.Principal
	}
	if fc.Credential != "" {
		config.Credential = fc.Credential
	}
	if fc.Database != "" {
		config.Database = fc.Database
	}
	if fc.HeartData != "" {
		config.HeartData = fc.HeartData
	}
	if fc.MinSize != nil {
		config.MinSize = *fc.MinSize
	}
	if fc.MaxSize != nil {
		config.MaxSize = *fc.MaxSize
	}
	if fc.AcquireTimeoutMS != nil {
		config.AcquireTimeout = time.Duration(*fc.AcquireTimeoutMS) * time.Millisecond
	}
	if fc.MaxIdleTimeMS != nil {
		config.MaxIdleTime = time.Duration(*fc.MaxIdleTimeMS) * time.Millisecond
	}
	if fc.DialLimit != nil {
		config.DialLimit = *fc.DialLimit
	}
	if fc.ValidateOnRelease != nil {
		config.ValidateOnRelease = *fc.ValidateOnRelease
	}
	if fc.BlockOnExhaustion != nil {
		config.BlockOnExhaustion = *fc.BlockOnExhaustion
	}
	if fc.RunDir != "" {
		config.RunDir = fc.RunDir
	}
	if fc.AdminPort != "" {
		config.AdminPort = fc.AdminPort
	}
	if fc.LogLevel != "" {
		config.LogLevel = fc.LogLevel
	}
	return nil
}
