package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env string

	Database DatabaseConfig
	Log      LogConfig
	Exam     ExamConfig
	Metrics  MetricsConfig
}

type DatabaseConfig struct {
	Host         string `validate:"required"`
	Port         int    `validate:"min=1,max=65535"`
	User         string `validate:"required"`
	Password     string
	Name         string `validate:"required"`
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type LogConfig struct {
	Level  string
	Format string
}

// ExamConfig drives the shape of the exam period and the packing heuristics.
type ExamConfig struct {
	BaseDate             string   `validate:"required,datetime=2006-01-02"`
	NumCalendarDays      int      `validate:"min=1"`
	RestWeekday          int      `validate:"min=0,max=6"`
	SlotTimes            []string `validate:"min=1,dive,datetime=15:04"`
	AmphiCapacity        int      `validate:"min=1"`
	SmallRoomCapacity    int      `validate:"min=1"`
	ProctorsPerAmphi     int      `validate:"min=1"`
	ProctorsPerSmallRoom int      `validate:"min=1"`
	MaxProctoringsPerDay int      `validate:"min=1"`
	FusionSlackAmphi     int      `validate:"min=0"`
	FusionSlackSmallRoom int      `validate:"min=0"`
	WallClockBudget      time.Duration
}

// MetricsConfig controls the optional Pushgateway export of run statistics.
type MetricsConfig struct {
	PushgatewayURL string
	JobName        string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing .env is fine: defaults and process env still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Exam = ExamConfig{
		BaseDate:             v.GetString("EXAM_BASE_DATE"),
		NumCalendarDays:      v.GetInt("EXAM_CALENDAR_DAYS"),
		RestWeekday:          v.GetInt("EXAM_REST_WEEKDAY"),
		SlotTimes:            splitAndTrim(v.GetString("EXAM_SLOT_TIMES")),
		AmphiCapacity:        v.GetInt("EXAM_AMPHI_CAPACITY"),
		SmallRoomCapacity:    v.GetInt("EXAM_SMALL_ROOM_CAPACITY"),
		ProctorsPerAmphi:     v.GetInt("EXAM_PROCTORS_PER_AMPHI"),
		ProctorsPerSmallRoom: v.GetInt("EXAM_PROCTORS_PER_SMALL_ROOM"),
		MaxProctoringsPerDay: v.GetInt("EXAM_MAX_PROCTORINGS_PER_PROF_PER_DAY"),
		FusionSlackAmphi:     v.GetInt("EXAM_FUSION_SLACK_AMPHI"),
		FusionSlackSmallRoom: v.GetInt("EXAM_FUSION_SLACK_SMALL_ROOM"),
		WallClockBudget:      parseDuration(v.GetString("EXAM_WALL_CLOCK_BUDGET"), 45*time.Second),
	}

	cfg.Metrics = MetricsConfig{
		PushgatewayURL: v.GetString("METRICS_PUSHGATEWAY_URL"),
		JobName:        v.GetString("METRICS_JOB_NAME"),
	}

	return cfg, nil
}

// Validate checks the loaded configuration before any database contact.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	// The exam period must open on the configured base date, which has to be
	// a real calendar date; validator already checked the format.
	if _, err := time.ParseInLocation("2006-01-02", c.Exam.BaseDate, time.Local); err != nil {
		return fmt.Errorf("invalid EXAM_BASE_DATE: %w", err)
	}
	return nil
}

// ParsedBaseDate returns the parsed first calendar day of the exam period.
func (e ExamConfig) ParsedBaseDate() time.Time {
	t, _ := time.ParseInLocation("2006-01-02", e.BaseDate, time.Local)
	return t
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "asura_edt")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("EXAM_BASE_DATE", "2026-01-12")
	v.SetDefault("EXAM_CALENDAR_DAYS", 21)
	v.SetDefault("EXAM_REST_WEEKDAY", int(time.Friday))
	v.SetDefault("EXAM_SLOT_TIMES", "08:00,10:30,13:00,15:30")
	v.SetDefault("EXAM_AMPHI_CAPACITY", 60)
	v.SetDefault("EXAM_SMALL_ROOM_CAPACITY", 20)
	v.SetDefault("EXAM_PROCTORS_PER_AMPHI", 3)
	v.SetDefault("EXAM_PROCTORS_PER_SMALL_ROOM", 1)
	v.SetDefault("EXAM_MAX_PROCTORINGS_PER_PROF_PER_DAY", 3)
	v.SetDefault("EXAM_FUSION_SLACK_AMPHI", 10)
	v.SetDefault("EXAM_FUSION_SLACK_SMALL_ROOM", 5)
	v.SetDefault("EXAM_WALL_CLOCK_BUDGET", "45s")

	v.SetDefault("METRICS_PUSHGATEWAY_URL", "")
	v.SetDefault("METRICS_JOB_NAME", "exam_optimizer")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
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
