package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/limaJavier/school-timetabling/pkg/model"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	envPrefix = "TIMETABLE"
)

type Config struct {
	Env string

	Solver   SolverConfig
	Calendar CalendarConfig
	Limits   LimitsConfig
	Server   ServerConfig
	Log      LogConfig
}

// SolverConfig tunes every solve started by the binaries
type SolverConfig struct {
	Budget               time.Duration
	Workers              int
	DisableCapacityCheck bool
}

// CalendarConfig is used when an input does not define its own calendar
type CalendarConfig struct {
	Days          []string
	PeriodsPerDay int
}

type LimitsConfig struct {
	MaxWeeklyPeriods int
}

type ServerConfig struct {
	Port         int
	APIPrefix    string
	MaxBodyBytes int64
}

type LogConfig struct {
	Level  string
	Format string
}

// Load reads, in increasing precedence: defaults, the optional config file at path (json, yaml or env), a .env file and TIMETABLE_* environment variables.
// Keys are dotted (solver.budget) in files and underscored in the environment (TIMETABLE_SOLVER_BUDGET)
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %v not found: %w", path, err)
			}
			return nil, fmt.Errorf("cannot read config file %v: %w", path, err)
		}
	}

	cfg := &Config{}
	cfg.Env = v.GetString("env")

	cfg.Solver = SolverConfig{
		Budget:               parseDuration(v.GetString("solver.budget"), 30*time.Second),
		Workers:              v.GetInt("solver.workers"),
		DisableCapacityCheck: v.GetBool("solver.disable_capacity_check"),
	}
	if cfg.Solver.Workers <= 0 {
		cfg.Solver.Workers = runtime.NumCPU()
	}

	cfg.Calendar = CalendarConfig{
		Days:          stringSlice(v.GetStringSlice("calendar.days")),
		PeriodsPerDay: v.GetInt("calendar.periods_per_day"),
	}

	cfg.Limits = LimitsConfig{
		MaxWeeklyPeriods: v.GetInt("limits.max_weekly_periods"),
	}

	cfg.Server = ServerConfig{
		Port:         v.GetInt("server.port"),
		APIPrefix:    v.GetString("server.api_prefix"),
		MaxBodyBytes: v.GetInt64("server.max_body_bytes"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	return cfg, nil
}

// Settings converts the calendar and limits sections into the model's settings
func (cfg *Config) Settings() model.Settings {
	return model.Settings{
		DefaultDays:          cfg.Calendar.Days,
		DefaultPeriodsPerDay: cfg.Calendar.PeriodsPerDay,
		MaxWeeklyPeriods:     cfg.Limits.MaxWeeklyPeriods,
	}
}

func setDefaults(v *viper.Viper) {
	defaults := model.DefaultSettings()

	v.SetDefault("env", EnvDevelopment)

	v.SetDefault("solver.budget", "30s")
	v.SetDefault("solver.workers", runtime.NumCPU())
	v.SetDefault("solver.disable_capacity_check", false)

	v.SetDefault("calendar.days", strings.Join(defaults.DefaultDays, ","))
	v.SetDefault("calendar.periods_per_day", defaults.DefaultPeriodsPerDay)
	v.SetDefault("limits.max_weekly_periods", defaults.MaxWeeklyPeriods)

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.api_prefix", "/api/v1")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}

	return d
}

// stringSlice accepts both real lists (config files) and comma separated strings (environment)
func stringSlice(raw []string) []string {
	result := make([]string, 0, len(raw))
	for _, value := range raw {
		result = append(result, splitAndTrim(value)...)
	}
	return result
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
