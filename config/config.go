package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrPartialR2Config = errors.New("R2 storage is partially configured: set all R2_* variables or none")

type Config struct {
	DatabaseURL        string
	JWTSecretKey       string
	ServerPort         int
	CORSAllowedOrigins []string

	// R2 is nil when report archiving is not configured.
	R2        *R2Config
	Synthesis SynthesisDefaults
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicBaseURL   string
}

// SynthesisDefaults seed the synthesis config of scheduled runs and of API
// requests that leave fields out.
type SynthesisDefaults struct {
	MinFighters      int
	AutoBackfill     bool
	BackfillStrategy string
	PreferredSizes   []int
	MaxBrackets      int
	Seed             string
	ScheduleInterval time.Duration
	BatchConcurrency int
}

// Load reads configuration from the environment. A .env file is loaded first
// when present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds the config from an arbitrary lookup function.
func FromEnv(getenv func(string) string) (*Config, error) {
	dbURL := getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intVar(getenv, "SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	r2, err := loadR2(getenv)
	if err != nil {
		return nil, err
	}

	synth, err := loadSynthesis(getenv)
	if err != nil {
		return nil, err
	}

	return &Config{
		DatabaseURL:        dbURL,
		JWTSecretKey:       jwtKey,
		ServerPort:         port,
		CORSAllowedOrigins: listVar(getenv("CORS_ALLOWED_ORIGINS"), []string{"*"}),
		R2:                 r2,
		Synthesis:          synth,
	}, nil
}

func loadR2(getenv func(string) string) (*R2Config, error) {
	cfg := R2Config{
		AccountID:       getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   getenv("R2_PUBLIC_BASE_URL"),
	}
	set := 0
	for _, v := range []string{cfg.AccountID, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.BucketName, cfg.PublicBaseURL} {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil, nil
	case 5:
		return &cfg, nil
	default:
		return nil, ErrPartialR2Config
	}
}

func loadSynthesis(getenv func(string) string) (SynthesisDefaults, error) {
	d := SynthesisDefaults{
		BackfillStrategy: "club-distributed",
		Seed:             "fightclub",
	}
	var err error

	if d.MinFighters, err = intVar(getenv, "SYNTH_MIN_FIGHTERS", 4); err != nil {
		return d, err
	}
	if d.MinFighters < 1 {
		return d, fmt.Errorf("SYNTH_MIN_FIGHTERS must be at least 1, got %d", d.MinFighters)
	}

	if v := getenv("SYNTH_AUTO_BACKFILL"); v != "" {
		if d.AutoBackfill, err = strconv.ParseBool(v); err != nil {
			return d, fmt.Errorf("invalid SYNTH_AUTO_BACKFILL environment variable: %w", err)
		}
	}

	if v := getenv("SYNTH_BACKFILL_STRATEGY"); v != "" {
		d.BackfillStrategy = v
	}
	switch d.BackfillStrategy {
	case "club-distributed", "balanced", "random":
	default:
		return d, fmt.Errorf("SYNTH_BACKFILL_STRATEGY must be club-distributed, balanced or random, got %q", d.BackfillStrategy)
	}

	d.PreferredSizes = []int{4, 8, 16, 32}
	if v := getenv("SYNTH_PREFERRED_SIZES"); v != "" {
		sizes := make([]int, 0)
		for _, part := range listVar(v, nil) {
			n, err := strconv.Atoi(part)
			if err != nil || n < 2 {
				return d, fmt.Errorf("invalid size %q in SYNTH_PREFERRED_SIZES", part)
			}
			sizes = append(sizes, n)
		}
		sort.Ints(sizes)
		d.PreferredSizes = sizes
	}

	if d.MaxBrackets, err = intVar(getenv, "SYNTH_MAX_BRACKETS", 0); err != nil {
		return d, err
	}
	if d.MaxBrackets < 0 {
		return d, fmt.Errorf("SYNTH_MAX_BRACKETS must not be negative, got %d", d.MaxBrackets)
	}

	if v := getenv("SYNTH_SEED"); v != "" {
		d.Seed = v
	}

	if v := getenv("SYNTH_SCHEDULE_INTERVAL"); v != "" {
		if d.ScheduleInterval, err = time.ParseDuration(v); err != nil {
			return d, fmt.Errorf("invalid SYNTH_SCHEDULE_INTERVAL environment variable: %w", err)
		}
	}

	if d.BatchConcurrency, err = intVar(getenv, "SYNTH_BATCH_CONCURRENCY", 4); err != nil {
		return d, err
	}
	if d.BatchConcurrency < 1 {
		return d, fmt.Errorf("SYNTH_BATCH_CONCURRENCY must be at least 1, got %d", d.BatchConcurrency)
	}
	return d, nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func listVar(v string, def []string) []string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
