// Package config merges command-line flags, environment and YAML config
// files into the options the search service consumes.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"papertrail_cli/internal/logger"
	"papertrail_cli/internal/repository"
	"papertrail_cli/internal/service"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFileName is looked up in the working directory, then in $HOME.
const ConfigFileName = ".papertrail.yml"

// Config keys, shared by flags, env and YAML files.
const (
	keyFollow   = "follow"
	keyDelay    = "delay"
	keySystem   = "system"
	keyGroup    = "group"
	keyJSON     = "json"
	keyTime     = "time"
	keyToken    = "token"
	keyAPIURL   = "api_url"
	keyTimeout  = "timeout"
	keyLogLevel = "log_level"

	tokenEnv = "PAPERTRAIL_API_TOKEN"

	defaultDelaySeconds   = 2
	defaultTimeoutSeconds = 30
)

var (
	// ErrHelp is returned after usage was printed for -h/--help.
	ErrHelp = pflag.ErrHelp
	// ErrUsage wraps flag parsing failures.
	ErrUsage = errors.New("invalid arguments")
	// ErrConfigFile wraps config file read failures.
	ErrConfigFile = errors.New("cannot read config file")
)

// Config is the fully merged run configuration.
type Config struct {
	Options service.Options
	API     repository.APIConfig

	LogLevel    string
	ConfigFiles []string // files that were loaded, in merge order
}

// Loader resolves configuration for one invocation.
type Loader struct {
	WorkDir string
	HomeDir string
	Usage   io.Writer // where -h prints
	Now     func() time.Time
}

// NewLoader returns a loader bound to the process environment.
func NewLoader(usage io.Writer) *Loader {
	wd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return &Loader{WorkDir: wd, HomeDir: home, Usage: usage, Now: time.Now}
}

// Load parses args (without the program name). Precedence, lowest first:
// defaults, discovered config file, explicit -c file, environment, flags.
func (l *Loader) Load(args []string) (*Config, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}

	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			l.printUsage(fs)
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if help, _ := fs.GetBool("help"); help {
		l.printUsage(fs)
		return nil, ErrHelp
	}

	v := viper.New()
	setDefaults(v)

	cfg := &Config{}
	if path := findConfigFile(l.WorkDir, l.HomeDir); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrConfigFile, path, err)
		}
		cfg.ConfigFiles = append(cfg.ConfigFiles, path)
	}
	if explicit, _ := fs.GetString("configfile"); explicit != "" {
		path := expandPath(explicit, l.WorkDir, l.HomeDir)
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrConfigFile, path, err)
		}
		cfg.ConfigFiles = append(cfg.ConfigFiles, path)
	}

	if err := v.BindEnv(keyToken, tokenEnv); err != nil {
		return nil, err
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, err
	}

	cfg.Options = service.Options{
		Query:        strings.Join(fs.Args(), " "),
		System:       v.GetString(keySystem),
		Group:        v.GetString(keyGroup),
		Follow:       v.GetBool(keyFollow),
		DelaySeconds: v.GetInt(keyDelay),
		JSON:         v.GetBool(keyJSON),
	}
	if rng := strings.TrimSpace(v.GetString(keyTime)); rng != "" {
		start, end, err := ParseTimeRange(rng, now())
		if err != nil {
			return nil, err
		}
		cfg.Options.StartTime = start
		cfg.Options.EndTime = end
	}

	cfg.API = repository.APIConfig{
		BaseURL: v.GetString(keyAPIURL),
		Token:   v.GetString(keyToken),
		Timeout: time.Duration(v.GetInt(keyTimeout)) * time.Second,
	}
	cfg.LogLevel = v.GetString(keyLogLevel)

	return cfg, nil
}

// LogFields returns key/value pairs describing c for diagnostics. The API
// token is left out.
func (c *Config) LogFields() []any {
	return []any{
		"files", c.ConfigFiles,
		"api_url", c.API.BaseURL,
		"system", c.Options.System,
		"group", c.Options.Group,
		"follow", c.Options.Follow,
		"delay", c.Options.DelaySeconds,
		"json", c.Options.JSON,
		"start", c.Options.StartTime,
		"end", c.Options.EndTime,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(keyFollow, false)
	v.SetDefault(keyDelay, defaultDelaySeconds)
	v.SetDefault(keyJSON, false)
	v.SetDefault(keyAPIURL, repository.DefaultBaseURL)
	v.SetDefault(keyTimeout, defaultTimeoutSeconds)
	v.SetDefault(keyLogLevel, logger.WarnLevel)
}

func newFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("papertrail", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.BoolP("help", "h", false, "Show usage")
	fs.BoolP("follow", "f", false, "Continue running and print new events (off)")
	fs.IntP("delay", "d", defaultDelaySeconds, "Delay between refresh in `SECONDS`")
	fs.StringP("configfile", "c", "", "`PATH` to config (~/"+ConfigFileName+")")
	fs.StringP("system", "s", "", "`SYSTEM` to search")
	fs.StringP("group", "g", "", "`GROUP` to search")
	fs.BoolP("json", "j", false, "Output raw json data")
	fs.StringP("time", "t", "", "Retrieve logs after a start timestamp or between two timestamps (`RANGE`: START or START - END)")
	fs.String("log-level", logger.WarnLevel, "Diagnostics `LEVEL` on stderr: debug, info, warn, error")
	return fs
}

// bindFlags maps flag names onto config keys. Unchanged flags do not
// override config files.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for flag, key := range map[string]string{
		"follow":    keyFollow,
		"delay":     keyDelay,
		"system":    keySystem,
		"group":     keyGroup,
		"json":      keyJSON,
		"time":      keyTime,
		"log-level": keyLogLevel,
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// findConfigFile returns ./.papertrail.yml or ~/.papertrail.yml, whichever
// exists first, or "".
func findConfigFile(workDir, homeDir string) string {
	for _, dir := range []string{workDir, homeDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, ConfigFileName)
		if st, err := os.Stat(path); err == nil && !st.IsDir() {
			return path
		}
	}
	return ""
}

// expandPath resolves "~" and relative paths the way a shell user expects.
func expandPath(p, workDir, homeDir string) string {
	switch {
	case p == "~":
		return homeDir
	case strings.HasPrefix(p, "~/"):
		return filepath.Join(homeDir, p[2:])
	case filepath.IsAbs(p) || workDir == "":
		return p
	default:
		return filepath.Join(workDir, p)
	}
}

func (l *Loader) printUsage(fs *pflag.FlagSet) {
	if l.Usage == nil {
		return
	}
	fmt.Fprintln(l.Usage, "papertrail - command-line tail and search for Papertrail log management service")
	fmt.Fprintln(l.Usage)
	fmt.Fprint(l.Usage, fs.FlagUsages())
	fmt.Fprint(l.Usage, usageText)
}

const usageText = `
  Usage:
    papertrail [-f] [-s system] [-g group] [-d seconds] [-c papertrail.yml] [-j] [-t time] [query]

  Examples:
    papertrail -f
    papertrail something
    papertrail 1.2.3 Failure
    papertrail -s ns1 "connection refused"
    papertrail -f "(www OR db) (nginx OR pgsql) -accepted"
    papertrail -f -g Production "(nginx OR pgsql) -accepted"
    papertrail -t "2024-01-02 10:00 - 2024-01-02 11:00" error

  More: https://papertrailapp.com/

`
