package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes for the host API.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage provider modes.
const (
	StorageModeLocal = "local"
	StorageModeCloud = "cloud"
	StorageModeGuest = "guest"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Prefs   PrefsConfig       `yaml:"prefs"`
	Auth    AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Prefs.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration for the host API.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf("127.0.0.1:%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects and configures the storage backend.
//
// Mode controls which provider is active at startup:
//   - "local" (default): the file system under Workspace.
//   - "cloud": the object-store API described by Cloud.
//   - "guest": in-memory editing only, nothing persists.
type StorageConfig struct {
	Mode      string      `yaml:"mode"`
	Workspace string      `yaml:"workspace"`
	Cloud     CloudConfig `yaml:"cloud"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	// Normalise empty mode to "local" for backward compatibility.
	if c.Mode == "" {
		c.Mode = StorageModeLocal
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(StorageModeLocal, StorageModeCloud, StorageModeGuest)),
	); err != nil {
		return err
	}
	switch c.Mode {
	case StorageModeLocal:
		if c.Workspace == "" {
			return fmt.Errorf("storage: mode is %q but workspace is empty", StorageModeLocal)
		}
	case StorageModeCloud:
		return c.Cloud.Validate()
	}
	return nil
}

// CloudConfig holds the cloud object-store connection settings. Token is
// the bearer credential; how it was acquired is outside this program.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// Validate validates the cloud configuration.
func (c *CloudConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Token, validation.Required),
	)
}

// PrefsConfig holds the path of the preference database.
type PrefsConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the prefs configuration.
func (c *PrefsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the host API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for a
//     single-user local host.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8090,
			},
		},
		Storage: StorageConfig{
			Mode:      StorageModeLocal,
			Workspace: "./workspace",
		},
		Prefs: PrefsConfig{
			Path: "./updown.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
