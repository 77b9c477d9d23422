//Package config loads the analyzer's settings from config.yaml, .env and PITCH_ environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/baseline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/formation"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/risk"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

//EnvPrefix is prepended to every environment override, e.g. PITCH_HTTP_PORT for http.port
const EnvPrefix = "PITCH"

type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Detect    DetectConfig    `mapstructure:"detect"`
	Formation FormationConfig `mapstructure:"formation"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Baseline  BaselineConfig  `mapstructure:"baseline"`
	Store     StoreConfig     `mapstructure:"store"`
	Directory DirectoryConfig `mapstructure:"directory"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Video     VideoConfig     `mapstructure:"video"`
	Pose      PoseConfig      `mapstructure:"pose"`
	Log       LogConfig       `mapstructure:"log"`
}

type AnalysisConfig struct {
	MaxFrames     int `mapstructure:"max_frames"`
	MaxConcurrent int `mapstructure:"max_concurrent"`
}

//ColorRange is one team's uniform in HSV
type ColorRange struct {
	Lower detect.HSV `mapstructure:"lower"`
	Upper detect.HSV `mapstructure:"upper"`
}

type DetectConfig struct {
	MinArea    float64    `mapstructure:"min_area"`
	OpenKernel int        `mapstructure:"open_kernel"`
	TeamA      ColorRange `mapstructure:"team_a"`
	TeamB      ColorRange `mapstructure:"team_b"`
}

//TeamRanges converts the configured colors into segmenter ranges
func (d DetectConfig) TeamRanges() []detect.TeamRange {
	return []detect.TeamRange{
		{Team: detect.TeamA, Lower: d.TeamA.Lower, Upper: d.TeamA.Upper},
		{Team: detect.TeamB, Lower: d.TeamB.Lower, Upper: d.TeamB.Upper},
	}
}

type FormationConfig struct {
	formation.Thresholds `mapstructure:",squash"`
	CompactnessNorm      float64          `mapstructure:"compactness_norm"`
	Rules                []formation.Rule `mapstructure:"rules"`
}

//ClassifierRules returns the configured rule chain, or the default chain built from the thresholds
func (f FormationConfig) ClassifierRules() []formation.Rule {
	if len(f.Rules) > 0 {
		return f.Rules
	}
	return formation.DefaultRules(f.Thresholds)
}

type RiskConfig struct {
	Moderate float64  `mapstructure:"moderate"`
	High     float64  `mapstructure:"high"`
	Features []string `mapstructure:"features"`
}

func (r RiskConfig) Levels() risk.Levels {
	return risk.Levels{Moderate: r.Moderate, High: r.High}
}

type BaselineConfig struct {
	Trees      int   `mapstructure:"trees"`
	SampleSize int   `mapstructure:"sample_size"`
	Seed       int64 `mapstructure:"seed"`
}

func (b BaselineConfig) Params() baseline.ForestParams {
	return baseline.ForestParams{Trees: b.Trees, SampleSize: b.SampleSize, Seed: b.Seed}
}

//StoreConfig selects where baselines live: "memory", "sqlite", "postgres" or "redis"
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`
	DSN           string `mapstructure:"dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	Verbose       bool   `mapstructure:"verbose"`
}

type DirectoryConfig struct {
	Root      string `mapstructure:"root"`
	Uploads   string `mapstructure:"uploads"`
	Processed string `mapstructure:"processed"`
}

//All returns every configured directory, root first
func (d DirectoryConfig) All() []string {
	return []string{d.Root, d.Uploads, d.Processed}
}

type HTTPConfig struct {
	Port          string  `mapstructure:"port"`
	RateLimit     float64 `mapstructure:"rate_limit"`
	RateBurst     int     `mapstructure:"rate_burst"`
	MaxUploadMB   int64   `mapstructure:"max_upload_mb"`
	ShutdownGrace int     `mapstructure:"shutdown_grace_seconds"`
}

type VideoConfig struct {
	Render    bool   `mapstructure:"render"`
	Codec     string `mapstructure:"codec"`
	Transcode bool   `mapstructure:"transcode"`
	Queue     int    `mapstructure:"queue"`
}

type PoseConfig struct {
	Model     string  `mapstructure:"model"`
	InputSize int     `mapstructure:"input_size"`
	Threshold float64 `mapstructure:"threshold"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

//SetDefaults registers a default for every recognised option
func SetDefaults(v *viper.Viper) {
	v.SetDefault("analysis.max_frames", video.DefaultMaxFrames)
	v.SetDefault("analysis.max_concurrent", 2)

	v.SetDefault("detect.min_area", detect.DefaultMinArea)
	v.SetDefault("detect.open_kernel", 3)
	ranges := detect.DefaultTeamRanges()
	for i, key := range []string{"team_a", "team_b"} {
		setHSV(v, "detect."+key+".lower", ranges[i].Lower)
		setHSV(v, "detect."+key+".upper", ranges[i].Upper)
	}

	th := formation.DefaultThresholds()
	v.SetDefault("formation.width_high", th.WidthHigh)
	v.SetDefault("formation.depth_high", th.DepthHigh)
	v.SetDefault("formation.width_mid", th.WidthMid)
	v.SetDefault("formation.compactness_norm", formation.DefaultCompactnessNorm)

	levels := risk.DefaultLevels()
	v.SetDefault("risk.moderate", levels.Moderate)
	v.SetDefault("risk.high", levels.High)
	v.SetDefault("risk.features", features.DefaultModelFeatures)

	params := baseline.DefaultForestParams()
	v.SetDefault("baseline.trees", params.Trees)
	v.SetDefault("baseline.sample_size", params.SampleSize)
	v.SetDefault("baseline.seed", params.Seed)

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "data/baselines.db")
	v.SetDefault("store.redis_addr", "localhost:6379")
	v.SetDefault("store.redis_db", 0)
	v.SetDefault("store.redis_password", "")
	v.SetDefault("store.verbose", false)

	v.SetDefault("directory.root", "data")
	v.SetDefault("directory.uploads", "data/uploads")
	v.SetDefault("directory.processed", "data/processed")

	v.SetDefault("http.port", "5000")
	v.SetDefault("http.rate_limit", 2.0)
	v.SetDefault("http.rate_burst", 4)
	v.SetDefault("http.max_upload_mb", 512)
	v.SetDefault("http.shutdown_grace_seconds", 10)

	v.SetDefault("video.render", false)
	v.SetDefault("video.codec", "XVID")
	v.SetDefault("video.transcode", false)
	v.SetDefault("video.queue", 32)

	v.SetDefault("pose.model", "")
	v.SetDefault("pose.input_size", detect.DefaultPoseInputSize)
	v.SetDefault("pose.threshold", detect.DefaultPoseThreshold)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

func setHSV(v *viper.Viper, key string, c detect.HSV) {
	v.SetDefault(key+".h", c.H)
	v.SetDefault(key+".s", c.S)
	v.SetDefault(key+".v", c.V)
}

//Load reads .env (when present), then config.yaml from the given search paths (current directory when none),
//then PITCH_ environment overrides. A missing config file is not an error, defaults apply.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load() //.env is optional

	v := viper.New()
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: could not read config file, got '%w'", err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: could not decode, got '%w'", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

//Validate rejects settings the components would refuse later on, so misconfiguration fails at startup
func (c *Config) Validate() error {
	if c.Analysis.MaxFrames <= 0 {
		return errors.New("config: analysis.max_frames must be positive")
	}
	if c.Analysis.MaxConcurrent <= 0 {
		return errors.New("config: analysis.max_concurrent must be positive")
	}
	if c.Detect.MinArea < 0 {
		return errors.New("config: detect.min_area must not be negative")
	}
	for _, r := range c.Detect.TeamRanges() {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("config: detect: %w", err)
		}
	}
	if c.Formation.CompactnessNorm <= 0 {
		return errors.New("config: formation.compactness_norm must be positive")
	}
	if err := formation.ValidateRules(c.Formation.ClassifierRules()); err != nil {
		return fmt.Errorf("config: formation: %w", err)
	}
	if err := c.Risk.Levels().Validate(); err != nil {
		return fmt.Errorf("config: risk: %w", err)
	}
	if len(c.Risk.Features) == 0 {
		return errors.New("config: risk.features must name at least one feature")
	}
	for _, name := range c.Risk.Features {
		if !features.KnownFeature(name) {
			return fmt.Errorf("config: risk.features: unknown feature '%s'", name)
		}
	}
	if c.Baseline.Trees <= 0 || c.Baseline.SampleSize <= 0 {
		return errors.New("config: baseline.trees and baseline.sample_size must be positive")
	}

	switch c.Store.Driver {
	case "memory", "redis":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: store.dsn is required for driver '%s'", c.Store.Driver)
		}
	default:
		return fmt.Errorf("config: unknown store.driver '%s'", c.Store.Driver)
	}

	if c.HTTP.Port == "" {
		return errors.New("config: missing http.port")
	}
	if c.Directory.Uploads == "" || c.Directory.Processed == "" {
		return errors.New("config: missing critical directories")
	}

	return nil
}
