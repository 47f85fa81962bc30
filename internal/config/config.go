package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	RTorrent   RTorrent `mapstructure:"rtorrent"`
	FTP        FTP      `mapstructure:"ftp"`
	Folders    Folders  `mapstructure:"folders"`
	Rules      Rules    `mapstructure:"rules"`
	Radarr     Arr      `mapstructure:"radarr"`
	Sonarr     Arr      `mapstructure:"sonarr"`
	DaemonPort int      `mapstructure:"daemon_port"`
	DBPath     string   `mapstructure:"db_path"`
	CachePath  string   `mapstructure:"cache_path"`
}

type RTorrent struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Pass        string `mapstructure:"pass"`
	Path        string `mapstructure:"path"`
	RecheckTime int    `mapstructure:"recheck_time"`
	AllowCache  bool   `mapstructure:"allow_cache"`
}

type FTP struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
}

type Folders struct {
	Root string `mapstructure:"root"`
	// Temp must live on the same filesystem as Root: publishing a finished
	// download is a rename, and loses its atomicity across filesystems.
	Temp         string                 `mapstructure:"temp"`
	Completed    Completed              `mapstructure:"completed"`
	Permissions  Permissions            `mapstructure:"permissions"`
	LabelMapping map[string]LabelTarget `mapstructure:"label_mapping"`
}

type Completed struct {
	Label       string `mapstructure:"label"`
	ChangeLabel bool   `mapstructure:"change_label"`
}

type Permissions struct {
	Change  bool   `mapstructure:"change_permissions"`
	Folders string `mapstructure:"folders"`
	Files   string `mapstructure:"files"`
	Group   string `mapstructure:"group"`
}

// LabelTarget routes one label to a destination subpath. A zero Priority
// means unset and sorts after every explicitly prioritized label.
type LabelTarget struct {
	Path     string   `mapstructure:"path"`
	Priority int      `mapstructure:"priority"`
	Actions  []Action `mapstructure:"actions"`
}

type Action struct {
	Name           string `mapstructure:"name"`
	ImportBasePath string `mapstructure:"import_base_path"`
}

type Rules struct {
	MinFileSize    int64    `mapstructure:"min_file_size"`
	MaxFileSize    int64    `mapstructure:"max_file_size"`
	SkipRegex      []string `mapstructure:"skip_regex"`
	SkipExtensions []string `mapstructure:"skip_extensions"`
}

type Arr struct {
	BaseURL string `mapstructure:"baseurl"`
	APIKey  string `mapstructure:"api_key"`
}

var Default = Config{
	RTorrent:   RTorrent{Port: 443, Path: "/RPC2", RecheckTime: 120},
	FTP:        FTP{Port: 21},
	DaemonPort: 9811,
	DBPath:     "fetcharr.db",
	CachePath:  "torrents_cache.json",
	Folders: Folders{
		Completed: Completed{Label: "completed", ChangeLabel: true},
		Permissions: Permissions{
			Folders: "0775",
			Files:   "0664",
		},
	},
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	return filepath.Join(home, ".fetcharr"), nil
}

// File returns the path of the config file the daemon watches for changes.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, "config.yaml"), nil
}

func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("FETCHARR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if ok := errors.As(err, &notFound); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.DBPath = resolvePath(dir, cfg.DBPath)
	cfg.CachePath = resolvePath(dir, cfg.CachePath)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("rtorrent.port", Default.RTorrent.Port)
	v.SetDefault("rtorrent.path", Default.RTorrent.Path)
	v.SetDefault("rtorrent.recheck_time", Default.RTorrent.RecheckTime)
	v.SetDefault("ftp.port", Default.FTP.Port)
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("db_path", Default.DBPath)
	v.SetDefault("cache_path", Default.CachePath)
	v.SetDefault("folders.completed.label", Default.Folders.Completed.Label)
	v.SetDefault("folders.completed.change_label", Default.Folders.Completed.ChangeLabel)
	v.SetDefault("folders.permissions.folders", Default.Folders.Permissions.Folders)
	v.SetDefault("folders.permissions.files", Default.Folders.Permissions.Files)
}

func resolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}

	return filepath.Join(dir, p)
}
