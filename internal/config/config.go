// Package config loads ftpmgr settings from defaults, a yaml file,
// FTPMGR_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/daemonctl"
	"github.com/hnrobert/ftpmgr/internal/discovery"
	"github.com/hnrobert/ftpmgr/internal/hostfs"
	"github.com/hnrobert/ftpmgr/internal/render"
	"github.com/hnrobert/ftpmgr/internal/store"
)

const (
	FileName  = "ftpmgr"
	EnvPrefix = "FTPMGR"
	SystemDir = "/etc/ftpmgr"
)

var ErrInvalid = errors.New("invalid configuration")

type Database struct {
	Type string `mapstructure:"type" yaml:"type"`
	DSN  string `mapstructure:"dsn" yaml:"dsn"`
}

type Hash struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
}

type Proftpd struct {
	ConfigDir      string        `mapstructure:"config_dir" yaml:"config_dir"`
	ConfigFile     string        `mapstructure:"config_file" yaml:"config_file"`
	PasswdFile     string        `mapstructure:"passwd_file" yaml:"passwd_file"`
	ValidateCmd    string        `mapstructure:"validate_cmd" yaml:"validate_cmd"`
	RestartCmd     string        `mapstructure:"restart_cmd" yaml:"restart_cmd"`
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	LockFile       string        `mapstructure:"lock_file" yaml:"lock_file"`
	DefaultUID     int           `mapstructure:"default_uid" yaml:"default_uid"`
	DefaultGID     int           `mapstructure:"default_gid" yaml:"default_gid"`
	Home           string        `mapstructure:"home" yaml:"home"`
	Shell          string        `mapstructure:"shell" yaml:"shell"`
}

type Discovery struct {
	MaxDepth     int    `mapstructure:"max_depth" yaml:"max_depth"`
	IdentityFile string `mapstructure:"identity_file" yaml:"identity_file"`
}

type Config struct {
	Listen      string    `mapstructure:"listen" yaml:"listen"`
	HostRoot    string    `mapstructure:"host_root" yaml:"host_root"`
	LogDir      string    `mapstructure:"log_dir" yaml:"log_dir"`
	JWTSecret   string    `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Database    Database  `mapstructure:"database" yaml:"database"`
	Hash        Hash      `mapstructure:"hash" yaml:"hash"`
	Proftpd     Proftpd   `mapstructure:"proftpd" yaml:"proftpd"`
	Discovery   Discovery `mapstructure:"discovery" yaml:"discovery"`
	AdminGroups []string  `mapstructure:"admin_groups" yaml:"admin_groups"`
}

func Defaults() map[string]any {
	return map[string]any{
		"listen":                  ":8080",
		"host_root":               hostfs.DefaultRoot,
		"log_dir":                 "",
		"jwt_secret":              "",
		"database.type":           store.TypeSQLite,
		"database.dsn":            "ftpmgr.db",
		"hash.algorithm":          auth.DefaultAlgorithm,
		"proftpd.config_dir":      hostfs.ProftpdDir,
		"proftpd.config_file":     hostfs.ProftpdConfigRel,
		"proftpd.passwd_file":     hostfs.ProftpdPasswdName,
		"proftpd.validate_cmd":    daemonctl.DefaultValidateCmd,
		"proftpd.restart_cmd":     daemonctl.DefaultRestartCmd,
		"proftpd.command_timeout": time.Duration(0),
		"proftpd.lock_file":       "",
		"proftpd.default_uid":     render.DefaultUID,
		"proftpd.default_gid":     render.DefaultGID,
		"proftpd.home":            render.DefaultHome,
		"proftpd.shell":           render.DefaultShell,
		"discovery.max_depth":     discovery.DefaultMaxDepth,
		"discovery.identity_file": "/" + hostfs.EtcPasswdRel,
		"admin_groups":            auth.DefaultAdminGroups,
	}
}

// Default returns the configuration produced by Defaults alone.
func Default() Config {
	c, _ := load(nil, "")
	return c
}

// flagKeys maps persistent and local flag names onto config keys.
var flagKeys = map[string]string{
	"listen":    "listen",
	"host-root": "host_root",
	"log-dir":   "log_dir",
	"db-type":   "database.type",
	"db-dsn":    "database.dsn",
}

// Load resolves the configuration for cmd. A non-empty path names the
// config file explicitly; otherwise ftpmgr.yaml is searched in the current
// directory, the user config directory and /etc/ftpmgr.
func Load(cmd *cobra.Command, path string) (Config, error) {
	c, err := load(cmd, path)
	if err != nil {
		return c, err
	}
	return c, c.Validate()
}

func load(cmd *cobra.Command, path string) (Config, error) {
	var c Config
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if path != "" {
		expanded, err := homedir.Expand(path)
		if err != nil {
			return c, err
		}
		v.SetConfigFile(expanded)
	}
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, FileName))
	}
	v.AddConfigPath(SystemDir)

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) || path != "" {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cmd != nil {
		for name, key := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, err
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	if err := c.expand(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) expand() error {
	for _, p := range []*string{&c.LogDir, &c.Proftpd.LockFile} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	if c.Database.Type == store.TypeSQLite {
		expanded, err := homedir.Expand(c.Database.DSN)
		if err != nil {
			return err
		}
		c.Database.DSN = expanded
	}
	return nil
}

// Validate rejects settings that would only fail later at first use.
func (c Config) Validate() error {
	if _, err := auth.NewHasher(c.Hash.Algorithm); err != nil {
		return fmt.Errorf("%w: hash.algorithm: %v", ErrInvalid, err)
	}
	if !store.SupportedType(c.Database.Type) {
		return fmt.Errorf("%w: database.type %q (want sqlite, postgres or mysql)", ErrInvalid, c.Database.Type)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("%w: database.dsn is empty", ErrInvalid)
	}
	if !strings.HasPrefix(c.Proftpd.ConfigDir, "/") {
		return fmt.Errorf("%w: proftpd.config_dir must be absolute", ErrInvalid)
	}
	if len(daemonctl.Split(c.Proftpd.ValidateCmd)) == 0 || len(daemonctl.Split(c.Proftpd.RestartCmd)) == 0 {
		return fmt.Errorf("%w: proftpd.validate_cmd and proftpd.restart_cmd are required", ErrInvalid)
	}
	if c.Proftpd.CommandTimeout < 0 {
		return fmt.Errorf("%w: proftpd.command_timeout is negative", ErrInvalid)
	}
	if c.Discovery.MaxDepth <= 0 {
		return fmt.Errorf("%w: discovery.max_depth must be positive", ErrInvalid)
	}
	return nil
}

// WriteDefault writes the default configuration as yaml to path. The file
// may hold a jwt secret and database credentials, hence 0600.
func WriteDefault(path string) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("could not create config directory %s: %w", filepath.Dir(expanded), err)
	}
	return os.WriteFile(expanded, data, 0o600)
}
