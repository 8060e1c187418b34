package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	keyInvitationTTLDays = "invitation_ttl_days"
	keyPublicTeams       = "public_teams"
	keyLogLevel          = "log_level"

	defaultInvitationTTLDays = 7
)

const defaultConfigYAML = `# laminotes configuration

# Days a team invitation stays acceptable.
invitation_ttl_days: 7

# Let non-members view documents of every team.
public_teams: false

# debug, info, warn or error
log_level: info
`

// Settings are the tunables read from config.yaml and LAMINOTES_* variables.
type Settings struct {
	InvitationTTLDays int
	PublicTeams       bool
	LogLevel          string
}

// Load reads config.yaml from the data directory, writing the default file on
// first run. Environment variables such as LAMINOTES_PUBLIC_TEAMS override
// the file.
func Load() (Settings, error) {
	return LoadFrom(GetDataDir())
}

// LoadFrom is Load with an explicit directory.
func LoadFrom(dir string) (Settings, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return Settings{}, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(dir); err != nil {
		return Settings{}, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(keyInvitationTTLDays, defaultInvitationTTLDays)
	v.SetDefault(keyPublicTeams, false)
	v.SetDefault(keyLogLevel, "info")
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(dir)
	v.SetEnvPrefix(appName)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	settings := Settings{
		InvitationTTLDays: v.GetInt(keyInvitationTTLDays),
		PublicTeams:       v.GetBool(keyPublicTeams),
		LogLevel:          v.GetString(keyLogLevel),
	}
	if settings.InvitationTTLDays < 1 {
		return Settings{}, fmt.Errorf("%s must be at least 1, got %d", keyInvitationTTLDays, settings.InvitationTTLDays)
	}
	return settings, nil
}

func ensureDefaultConfigFile(dir string) error {
	path := filepath.Join(dir, configFileExt)

	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	return os.WriteFile(path, []byte(defaultConfigYAML), 0o600)
}
