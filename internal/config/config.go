// Package config loads gestaltwatchd's daemon configuration, layering
// built-in defaults, an optional YAML file, a GESTALTWATCHD_-prefixed
// environment block, and command-line flags, in increasing order of
// precedence.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gestaltwatch/internal/cliutil"
)

// Config is the fully resolved daemon configuration.
type Config struct {
	Root           string   `yaml:"root"`
	ShadowRoot     string   `yaml:"shadow_root"`
	ListenAddr     string   `yaml:"listen_addr"`
	AuthToken      string   `yaml:"auth_token"`
	LogLevel       string   `yaml:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Watch          []string `yaml:"watch"`
	HistoryFiles   int      `yaml:"history_files"`
	HistoryPerFile int      `yaml:"history_per_file"`

	ShowVersion bool
	ShowHelp    bool
}

// fileConfig mirrors the subset of Config that can come from the YAML
// file; ShowVersion/ShowHelp are flag-only.
type fileConfig struct {
	Root           string   `yaml:"root"`
	ShadowRoot     string   `yaml:"shadow_root"`
	ListenAddr     string   `yaml:"listen_addr"`
	AuthToken      string   `yaml:"auth_token"`
	LogLevel       string   `yaml:"log_level"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Watch          []string `yaml:"watch"`
	HistoryFiles   int      `yaml:"history_files"`
	HistoryPerFile int      `yaml:"history_per_file"`
}

func defaults() Config {
	return Config{
		Root:           ".",
		ShadowRoot:     ".gestaltwatch/shadow",
		ListenAddr:     ":57518",
		LogLevel:       "info",
		HistoryFiles:   1000,
		HistoryPerFile: 50,
	}
}

// Load resolves a Config from args, an optional YAML file, and the
// process environment. args is typically os.Args[1:].
func Load(args []string, errOut io.Writer) (Config, error) {
	cfg := defaults()

	configPath := ""
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_CONFIG")); v != "" {
		configPath = v
	}

	fs := flag.NewFlagSet("gestaltwatchd", flag.ContinueOnError)
	fs.SetOutput(errOut)
	configFlag := fs.String("config", configPath, "Path to a YAML config file")
	rootFlag := fs.String("root", "", "Root directory to watch beneath")
	shadowFlag := fs.String("shadow-root", "", "Shadow repository directory")
	listenFlag := fs.String("listen", "", "HTTP listen address")
	tokenFlag := fs.String("token", "", "Auth token for REST/WS")
	logLevelFlag := fs.String("log-level", "", "Minimum log level (debug, info, warning, error)")
	watchFlag := fs.String("watch", "", "Comma-separated files to watch at startup")
	originsFlag := fs.String("allowed-origins", "", "Comma-separated allowed websocket origins")
	helpVersion := cliutil.AddHelpVersionFlags(fs, "Show help", "Print version and exit")
	fs.Usage = func() { printUsage(fs.Output()) }

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if helpVersion.Help {
		fs.Usage()
		cfg.ShowHelp = true
		return cfg, nil
	}
	if helpVersion.Version {
		cfg.ShowVersion = true
		return cfg, nil
	}

	if strings.TrimSpace(*configFlag) != "" {
		fileCfg, err := loadFile(*configFlag)
		if err != nil {
			return Config{}, err
		}
		applyFile(&cfg, fileCfg)
	}

	applyEnv(&cfg)

	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["root"] {
		cfg.Root = *rootFlag
	}
	if set["shadow-root"] {
		cfg.ShadowRoot = *shadowFlag
	}
	if set["listen"] {
		cfg.ListenAddr = *listenFlag
	}
	if set["token"] {
		cfg.AuthToken = *tokenFlag
	}
	if set["log-level"] {
		cfg.LogLevel = *logLevelFlag
	}
	if set["watch"] {
		cfg.Watch = splitNonEmpty(*watchFlag)
	}
	if set["allowed-origins"] {
		cfg.AllowedOrigins = splitNonEmpty(*originsFlag)
	}

	if strings.TrimSpace(cfg.Root) == "" {
		return Config{}, fmt.Errorf("config: root must not be empty")
	}
	if strings.TrimSpace(cfg.ShadowRoot) == "" {
		return Config{}, fmt.Errorf("config: shadow-root must not be empty")
	}
	return cfg, nil
}

func loadFile(path string) (fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fileConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var parsed fileConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fileConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return parsed, nil
}

func applyFile(cfg *Config, file fileConfig) {
	if file.Root != "" {
		cfg.Root = file.Root
	}
	if file.ShadowRoot != "" {
		cfg.ShadowRoot = file.ShadowRoot
	}
	if file.ListenAddr != "" {
		cfg.ListenAddr = file.ListenAddr
	}
	if file.AuthToken != "" {
		cfg.AuthToken = file.AuthToken
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if len(file.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = file.AllowedOrigins
	}
	if len(file.Watch) > 0 {
		cfg.Watch = file.Watch
	}
	if file.HistoryFiles > 0 {
		cfg.HistoryFiles = file.HistoryFiles
	}
	if file.HistoryPerFile > 0 {
		cfg.HistoryPerFile = file.HistoryPerFile
	}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_ROOT")); v != "" {
		cfg.Root = v
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_SHADOW_ROOT")); v != "" {
		cfg.ShadowRoot = v
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_LISTEN")); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("GESTALTWATCHD_TOKEN"); v != "" {
		cfg.AuthToken = v
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_WATCH")); v != "" {
		cfg.Watch = splitNonEmpty(v)
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_ALLOWED_ORIGINS")); v != "" {
		cfg.AllowedOrigins = splitNonEmpty(v)
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_HISTORY_FILES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryFiles = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("GESTALTWATCHD_HISTORY_PER_FILE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryPerFile = n
		}
	}
}

func splitNonEmpty(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: gestaltwatchd [options]")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Options:")
	fmt.Fprintln(out, "  --config PATH            Path to a YAML config file (env: GESTALTWATCHD_CONFIG)")
	fmt.Fprintln(out, "  --root DIR               Root directory to watch beneath (env: GESTALTWATCHD_ROOT)")
	fmt.Fprintln(out, "  --shadow-root DIR        Shadow repository directory (env: GESTALTWATCHD_SHADOW_ROOT)")
	fmt.Fprintln(out, "  --listen ADDR            HTTP listen address (env: GESTALTWATCHD_LISTEN)")
	fmt.Fprintln(out, "  --token TOKEN            Auth token for REST/WS (env: GESTALTWATCHD_TOKEN)")
	fmt.Fprintln(out, "  --log-level LEVEL        Minimum log level (env: GESTALTWATCHD_LOG_LEVEL)")
	fmt.Fprintln(out, "  --watch F1,F2,...        Files to watch at startup (env: GESTALTWATCHD_WATCH)")
	fmt.Fprintln(out, "  --allowed-origins O1,... Allowed websocket origins (env: GESTALTWATCHD_ALLOWED_ORIGINS)")
	fmt.Fprintln(out, "  --help, -h               Show this help message")
	fmt.Fprintln(out, "  --version, -v            Print version and exit")
}
