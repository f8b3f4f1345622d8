package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/utils"
)

// PredictionRules holds every tunable the TimelinePredictor applies. The defaults
// reproduce the production heuristics; a rule pack file may override any of them.
type PredictionRules struct {
	BUSlowdown        map[models.BusinessUnit]float64
	SlowDurations     map[models.DurationCategory]bool
	DurationSlowdown  float64
	WorkloadPenalty   float64
	DefaultAvgDays    float64
	HighRiskRatio     float64
	MediumRiskRatio   float64
	BottleneckRatio   float64
	CriticalRatio     float64
	HighWorkloadLimit int
	ConfidenceBase    float64
	ConfidenceCap     float64
	SamplesPerPoint   float64
	Delegates         map[models.Role][]string
	DayMode           utils.DayMode
}

// DefaultPredictionRules returns the production heuristics.
func DefaultPredictionRules() PredictionRules {
	return PredictionRules{
		BUSlowdown: map[models.BusinessUnit]float64{
			models.BusinessUnitET: 1.2,
			models.BusinessUnitPS: 1.2,
		},
		SlowDurations: map[models.DurationCategory]bool{
			models.DurationLongPrior:   true,
			models.DurationShortAfter:  true,
			models.DurationMediumAfter: true,
			models.DurationLongAfter:   true,
		},
		DurationSlowdown:  1.15,
		WorkloadPenalty:   0.3,
		DefaultAvgDays:    3.0,
		HighRiskRatio:     1.5,
		MediumRiskRatio:   1.2,
		BottleneckRatio:   1.3,
		CriticalRatio:     2.0,
		HighWorkloadLimit: 8,
		ConfidenceBase:    50,
		ConfidenceCap:     95,
		SamplesPerPoint:   3,
		Delegates: map[models.Role][]string{
			models.RoleRDDirector:    {"K. Hoffmann (Deputy R&D Director)", "S. Wagner (Business Line Manager)"},
			models.RolePlantDirector: {"T. Becker (Deputy Plant Director)", "A. Fischer (Plant Quality Manager)"},
		},
		DayMode: utils.DayModeCalendar,
	}
}

// RulePackFile is the YAML root structure. Absent fields keep their defaults;
// present maps replace the default map entirely.
type RulePackFile struct {
	BUSlowdown       map[string]float64  `yaml:"bu_slowdown"`
	SlowDurations    map[string]bool     `yaml:"slow_durations"`
	DurationSlowdown *float64            `yaml:"duration_slowdown"`
	WorkloadPenalty  *float64            `yaml:"workload_penalty_days"`
	DefaultAvgDays   *float64            `yaml:"default_avg_days"`
	Risk             *RiskRules          `yaml:"risk"`
	Bottleneck       *BottleneckRules    `yaml:"bottleneck"`
	Confidence       *ConfidenceRules    `yaml:"confidence"`
	Delegates        map[string][]string `yaml:"delegates"`
	DayMode          string              `yaml:"day_mode"`
}

// RiskRules overrides the risk band ratios.
type RiskRules struct {
	HighRatio   *float64 `yaml:"high_ratio"`
	MediumRatio *float64 `yaml:"medium_ratio"`
}

// BottleneckRules overrides bottleneck detection thresholds.
type BottleneckRules struct {
	Ratio                 *float64 `yaml:"ratio"`
	CriticalRatio         *float64 `yaml:"critical_ratio"`
	HighWorkloadThreshold *int     `yaml:"high_workload_threshold"`
}

// ConfidenceRules overrides the confidence formula.
type ConfidenceRules struct {
	Base            *float64 `yaml:"base"`
	Cap             *float64 `yaml:"cap"`
	SamplesPerPoint *float64 `yaml:"samples_per_point"`
}

// LoadRulePack overlays the YAML file at path on the default rules. An empty path
// or a missing file yields the defaults.
func LoadRulePack(path string, logger *slog.Logger) (PredictionRules, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules := DefaultPredictionRules()
	if path == "" {
		return rules, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("rule pack not found, using defaults", slog.String("path", path))
			return rules, nil
		}
		return PredictionRules{}, fmt.Errorf("read rule pack: %w", err)
	}
	var file RulePackFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return PredictionRules{}, fmt.Errorf("parse rule pack: %w", err)
	}
	if err := file.apply(&rules); err != nil {
		return PredictionRules{}, fmt.Errorf("rule pack %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return PredictionRules{}, fmt.Errorf("rule pack %s: %w", path, err)
	}
	logger.Info("rule pack loaded", slog.String("path", path), slog.String("day_mode", string(rules.DayMode)))
	return rules, nil
}

func (f RulePackFile) apply(rules *PredictionRules) error {
	if f.BUSlowdown != nil {
		rules.BUSlowdown = make(map[models.BusinessUnit]float64, len(f.BUSlowdown))
		for code, factor := range f.BUSlowdown {
			bu, err := models.ParseBusinessUnit(code)
			if err != nil {
				return err
			}
			rules.BUSlowdown[bu] = factor
		}
	}
	if f.SlowDurations != nil {
		rules.SlowDurations = make(map[models.DurationCategory]bool, len(f.SlowDurations))
		for code, slow := range f.SlowDurations {
			d, err := models.ParseDurationCategory(code)
			if err != nil {
				return err
			}
			rules.SlowDurations[d] = slow
		}
	}
	if f.Delegates != nil {
		rules.Delegates = make(map[models.Role][]string, len(f.Delegates))
		for name, delegates := range f.Delegates {
			role, err := models.ParseRole(name)
			if err != nil {
				return err
			}
			rules.Delegates[role] = append([]string(nil), delegates...)
		}
	}
	setFloat(&rules.DurationSlowdown, f.DurationSlowdown)
	setFloat(&rules.WorkloadPenalty, f.WorkloadPenalty)
	setFloat(&rules.DefaultAvgDays, f.DefaultAvgDays)
	if f.Risk != nil {
		setFloat(&rules.HighRiskRatio, f.Risk.HighRatio)
		setFloat(&rules.MediumRiskRatio, f.Risk.MediumRatio)
	}
	if f.Bottleneck != nil {
		setFloat(&rules.BottleneckRatio, f.Bottleneck.Ratio)
		setFloat(&rules.CriticalRatio, f.Bottleneck.CriticalRatio)
		if f.Bottleneck.HighWorkloadThreshold != nil {
			rules.HighWorkloadLimit = *f.Bottleneck.HighWorkloadThreshold
		}
	}
	if f.Confidence != nil {
		setFloat(&rules.ConfidenceBase, f.Confidence.Base)
		setFloat(&rules.ConfidenceCap, f.Confidence.Cap)
		setFloat(&rules.SamplesPerPoint, f.Confidence.SamplesPerPoint)
	}
	if f.DayMode != "" {
		mode, err := utils.ParseDayMode(f.DayMode)
		if err != nil {
			return err
		}
		rules.DayMode = mode
	}
	return nil
}

// Validate rejects rule sets that would make predictions meaningless.
func (r PredictionRules) Validate() error {
	switch {
	case r.DefaultAvgDays <= 0:
		return errors.New("default_avg_days must be positive")
	case r.WorkloadPenalty < 0:
		return errors.New("workload_penalty_days must not be negative")
	case r.DurationSlowdown <= 0:
		return errors.New("duration_slowdown must be positive")
	case r.SamplesPerPoint <= 0:
		return errors.New("confidence.samples_per_point must be positive")
	case r.ConfidenceBase < 0 || r.ConfidenceBase > 100:
		return errors.New("confidence.base must be within 0-100")
	case r.ConfidenceCap < 0 || r.ConfidenceCap > 100:
		return errors.New("confidence.cap must be within 0-100")
	case r.ConfidenceCap < r.ConfidenceBase:
		return errors.New("confidence.cap must not be below confidence.base")
	case r.MediumRiskRatio <= 0 || r.HighRiskRatio <= 0:
		return errors.New("risk ratios must be positive")
	case r.MediumRiskRatio > r.HighRiskRatio:
		return errors.New("risk.medium_ratio must not exceed risk.high_ratio")
	case r.BottleneckRatio <= 0:
		return errors.New("bottleneck.ratio must be positive")
	case r.CriticalRatio < r.BottleneckRatio:
		return errors.New("bottleneck.critical_ratio must not be below bottleneck.ratio")
	case r.HighWorkloadLimit < 0:
		return errors.New("bottleneck.high_workload_threshold must not be negative")
	}
	for bu, factor := range r.BUSlowdown {
		if factor <= 0 {
			return fmt.Errorf("bu_slowdown[%s] must be positive", bu)
		}
	}
	return nil
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}
