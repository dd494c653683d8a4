package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/dbstack/internal/logging"
	"github.com/mesh-intelligence/dbstack/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "DBSTACK"
)

// Config keys.
const (
	cfgKeyDriver      = "driver"
	cfgKeyDataDir     = "data_dir"
	cfgKeyJournalMode = "journal_mode"
	cfgKeyBusyTimeout = "busy_timeout_ms"
	cfgKeyStrictDrop  = "strict_drop"
	cfgKeyLogLevel    = "log.level"
	cfgKeyLogFormat   = "log.format"
	cfgKeyLogFile     = "log.file"
	cfgKeyLogRedact   = "log.redact"
)

// configFile is the structure written to config.yaml.
type configFile struct {
	Driver        string         `yaml:"driver"`
	DataDir       string         `yaml:"data_dir,omitempty"`
	JournalMode   string         `yaml:"journal_mode,omitempty"`
	BusyTimeoutMS int            `yaml:"busy_timeout_ms,omitempty"`
	StrictDrop    bool           `yaml:"strict_drop"`
	Log           logging.Config `yaml:"log"`
}

// settings is the resolved configuration of one CLI invocation.
type settings struct {
	Store types.Config
	Log   logging.Config
}

// defaultConfigFile returns the content written on first run.
func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Driver:      types.DriverModernc,
		DataDir:     dataDir,
		JournalMode: types.JournalWAL,
		Log:         logging.Config{Level: "warn", Format: logging.FormatText},
	}
}

// newViper returns a viper instance with defaults and DBSTACK_* environment
// overrides (log.level is DBSTACK_LOG_LEVEL). data_dir is not bound here;
// its environment variable ranks below the config file and is applied by
// paths.ResolveDataDir.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault(cfgKeyDriver, types.DriverModernc)
	v.SetDefault(cfgKeyJournalMode, "")
	v.SetDefault(cfgKeyBusyTimeout, 0)
	v.SetDefault(cfgKeyStrictDrop, false)
	v.SetDefault(cfgKeyLogLevel, "warn")
	v.SetDefault(cfgKeyLogFormat, logging.FormatText)
	v.SetDefault(cfgKeyLogFile, "")
	v.SetDefault(cfgKeyLogRedact, false)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{cfgKeyDriver, cfgKeyJournalMode, cfgKeyStrictDrop, cfgKeyLogLevel, cfgKeyLogFormat, cfgKeyLogFile, cfgKeyLogRedact} {
		_ = v.BindEnv(key)
	}
	return v
}

// loadSettings reads config.yaml from configDir. A missing file is not an
// error; defaults and environment overrides apply.
func loadSettings(configDir string) (settings, error) {
	v := newViper()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		Store: types.Config{
			Driver:        v.GetString(cfgKeyDriver),
			DataDir:       v.GetString(cfgKeyDataDir),
			JournalMode:   v.GetString(cfgKeyJournalMode),
			BusyTimeoutMS: v.GetInt(cfgKeyBusyTimeout),
			StrictDrop:    v.GetBool(cfgKeyStrictDrop),
		},
		Log: logging.Config{
			Level:  v.GetString(cfgKeyLogLevel),
			Format: v.GetString(cfgKeyLogFormat),
			File:   v.GetString(cfgKeyLogFile),
			Redact: v.GetBool(cfgKeyLogRedact),
		},
	}
	if err := s.Store.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// configPath returns the config.yaml path inside configDir.
func configPath(configDir string) string {
	return filepath.Join(configDir, configFileExt)
}
