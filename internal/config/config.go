package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/teambition/rrule-go"
	"gopkg.in/yaml.v3"

	"github.com/jakechorley/watchtower/pkg/core/allocator/criteria"
	"github.com/jakechorley/watchtower/pkg/core/compliance"
	"github.com/jakechorley/watchtower/pkg/core/corro"
	"github.com/jakechorley/watchtower/pkg/core/model"
)

const configFileBase = "watchtower_config"

// CoverageOverride changes the minimum coverage of one shift type on the dates matching an RRULE
type CoverageOverride struct {
	RRule   string `yaml:"rrule" validate:"required"`
	Type    string `yaml:"type" validate:"required,oneof=van watchhouse night corro other"`
	Minimum int    `yaml:"minimum" validate:"min=0"`
}

// GenerationDefaults override the standard generation config.
// Unset fields keep the standard value.
type GenerationDefaults struct {
	PeriodWeeks             int                `yaml:"periodWeeks,omitempty" validate:"omitempty,oneof=1 2 4"`
	MinVanCoverage          *int               `yaml:"minVanCoverage,omitempty" validate:"omitempty,min=0"`
	MinWatchhouseCoverage   *int               `yaml:"minWatchhouseCoverage,omitempty" validate:"omitempty,min=0"`
	MinNightCoverage        *int               `yaml:"minNightCoverage,omitempty" validate:"omitempty,min=0"`
	MinCorroCoverage        *int               `yaml:"minCorroCoverage,omitempty" validate:"omitempty,min=0"`
	CorroRule               *string            `yaml:"corroRule,omitempty"`
	MaxConsecutiveNights    int                `yaml:"maxConsecutiveNights,omitempty" validate:"omitempty,min=1,max=14"`
	MinRestDaysPerFortnight *int               `yaml:"minRestDaysPerFortnight,omitempty" validate:"omitempty,min=0,max=14"`
	MaxFortnightHours       float64            `yaml:"maxFortnightHours,omitempty" validate:"omitempty,gt=0,lte=168"`
	FatigueBalancing        *bool              `yaml:"fatigueBalancing,omitempty"`
	PreferenceWeighting     *bool              `yaml:"preferenceWeighting,omitempty"`
	CorroRotationPriority   *bool              `yaml:"corroRotationPriority,omitempty"`
	Overrides               []CoverageOverride `yaml:"overrides,omitempty" validate:"dive"`
}

// Config represents the application configuration
type Config struct {
	Stations      []string           `yaml:"stations" validate:"required,min=1,dive,required"`
	RosterSheetID string             `yaml:"rosterSheetID,omitempty"`
	Generation    GenerationDefaults `yaml:"generation"`
	Weights       *criteria.Weights  `yaml:"weights,omitempty" validate:"omitempty"`
	Corro         *corro.Thresholds  `yaml:"corro,omitempty" validate:"omitempty"`

	// Environment is read from WATCHTOWER_* variables, never from the file
	Environment Environment `yaml:"-" validate:"-"`
}

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Load loads and validates the configuration from watchtower_config.yaml
// It looks for the config file in the current directory first, then in the user's home directory
func Load() (*Config, error) {
	return LoadWithEnv("")
}

// LoadWithEnv loads the configuration for an environment
// For example, env="test" will look for "watchtower_config.test.yaml"
func LoadWithEnv(env string) (*Config, error) {
	configPath, err := findConfigFile(env)
	if err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	return LoadFromPath(configPath)
}

// LoadFromPath loads and validates the configuration from a specific path
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	environment, err := LoadEnvironment()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *environment

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate validates the configuration struct and checks rrule syntax
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Generation.CorroRule != nil && *cfg.Generation.CorroRule != "" {
		if _, err := rrule.StrToRRule(*cfg.Generation.CorroRule); err != nil {
			return fmt.Errorf("invalid corro rule: %w", err)
		}
	}

	for i, override := range cfg.Generation.Overrides {
		if _, err := rrule.StrToRRule(override.RRule); err != nil {
			return fmt.Errorf("invalid rrule in generation.overrides[%d]: %w", i, err)
		}
	}

	return nil
}

// HasStation reports whether the station is configured
func (c *Config) HasStation(station string) bool {
	for _, s := range c.Stations {
		if s == station {
			return true
		}
	}
	return false
}

// GenerationConfig builds the generation config for a station and period from the configured defaults
func (c *Config) GenerationConfig(station string, start time.Time) model.GenerationConfig {
	gen := model.DefaultGenerationConfig(station, start)
	d := c.Generation

	if d.PeriodWeeks != 0 {
		gen.PeriodWeeks = d.PeriodWeeks
	}
	setInt(&gen.MinVanCoverage, d.MinVanCoverage)
	setInt(&gen.MinWatchhouseCoverage, d.MinWatchhouseCoverage)
	setInt(&gen.MinNightCoverage, d.MinNightCoverage)
	setInt(&gen.MinCorroCoverage, d.MinCorroCoverage)
	setInt(&gen.MinRestDaysPerFortnight, d.MinRestDaysPerFortnight)
	if d.CorroRule != nil {
		gen.CorroRule = *d.CorroRule
	}
	if d.MaxConsecutiveNights != 0 {
		gen.MaxConsecutiveNights = d.MaxConsecutiveNights
	}
	if d.MaxFortnightHours != 0 {
		gen.MaxFortnightHours = d.MaxFortnightHours
	}
	setBool(&gen.FatigueBalancing, d.FatigueBalancing)
	setBool(&gen.PreferenceWeighting, d.PreferenceWeighting)
	setBool(&gen.CorroRotationPriority, d.CorroRotationPriority)

	for _, o := range d.Overrides {
		gen.Overrides = append(gen.Overrides, model.CoverageOverride{
			RRule:   o.RRule,
			Type:    model.ShiftType(o.Type),
			Minimum: o.Minimum,
		})
	}

	return gen
}

// Rules returns the EBA limits implied by the configured generation defaults
func (c *Config) Rules() compliance.Rules {
	return compliance.RulesFromConfig(c.GenerationConfig("", time.Time{}))
}

// CriteriaWeights returns the configured soft criterion weights, or the standard ones
func (c *Config) CriteriaWeights() criteria.Weights {
	if c.Weights == nil {
		return criteria.DefaultWeights()
	}
	return *c.Weights
}

// CorroThresholds returns the configured corro tiers, or the standard ones
func (c *Config) CorroThresholds() corro.Thresholds {
	if c.Corro == nil {
		return corro.DefaultThresholds()
	}
	return *c.Corro
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

// findConfigFile searches for the config file for an environment
func findConfigFile(env string) (string, error) {
	return findFile(envFileName(configFileBase, env, "yaml"))
}

// envFileName returns base.ext, or base.env.ext when env is set
func envFileName(base, env, ext string) string {
	if env == "" {
		return base + "." + ext
	}
	return base + "." + env + "." + ext
}

// findFile looks for name in the current directory, then in the user's home directory
func findFile(name string) (string, error) {
	if _, err := os.Stat(name); err == nil {
		return name, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	homePath := filepath.Join(homeDir, name)
	if _, err := os.Stat(homePath); err == nil {
		return homePath, nil
	}

	return "", fmt.Errorf("%s not found in current directory or home directory", name)
}
