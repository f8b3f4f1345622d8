package engine

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/miradorstack/sda-engine/internal/models"
	"github.com/miradorstack/sda-engine/internal/utils"
)

func writeRulePack(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func TestLoadRulePackOverlay(t *testing.T) {
	path := writeRulePack(t, `bu_slowdown:
  EM: 1.1
slow_durations:
  "> 9 months & after handover": true
workload_penalty_days: 0.5
bottleneck:
  high_workload_threshold: 4
delegates:
  plant director: ["R. Klein"]
day_mode: business
`)

	rules, err := LoadRulePack(path, nil)
	if err != nil {
		t.Fatalf("load rule pack: %v", err)
	}
	if !reflect.DeepEqual(rules.BUSlowdown, map[models.BusinessUnit]float64{models.BusinessUnitEM: 1.1}) {
		t.Fatalf("bu_slowdown should replace defaults, got %v", rules.BUSlowdown)
	}
	if !rules.SlowDurations[models.DurationLongAfter] || rules.SlowDurations[models.DurationLongPrior] {
		t.Fatalf("unexpected slow durations %v", rules.SlowDurations)
	}
	if rules.WorkloadPenalty != 0.5 || rules.HighWorkloadLimit != 4 {
		t.Fatalf("scalar overrides not applied: %+v", rules)
	}
	if rules.BottleneckRatio != 1.3 || rules.DefaultAvgDays != 3.0 {
		t.Fatalf("absent fields must keep defaults: %+v", rules)
	}
	if got := rules.Delegates[models.RolePlantDirector]; len(got) != 1 || got[0] != "R. Klein" {
		t.Fatalf("unexpected delegates %v", rules.Delegates)
	}
	if rules.DayMode != utils.DayModeBusiness {
		t.Fatalf("expected business day mode, got %s", rules.DayMode)
	}
}

func TestLoadRulePackMissingFile(t *testing.T) {
	rules, err := LoadRulePack(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !reflect.DeepEqual(rules, DefaultPredictionRules()) {
		t.Fatalf("expected defaults when file missing")
	}
}

func TestLoadRulePackRejectsUnknownKeys(t *testing.T) {
	cases := map[string]string{
		"business unit": "bu_slowdown:\n  ZZ: 1.5\n",
		"duration":      "slow_durations:\n  someday: true\n",
		"role":          "delegates:\n  Chief Vibes Officer: [\"x\"]\n",
	}
	for name, body := range cases {
		_, err := LoadRulePack(writeRulePack(t, body), nil)
		if !errors.Is(err, models.ErrInvalidClassification) {
			t.Fatalf("%s: expected ErrInvalidClassification, got %v", name, err)
		}
	}
}

func TestLoadRulePackValidation(t *testing.T) {
	if _, err := LoadRulePack(writeRulePack(t, "default_avg_days: 0\n"), nil); err == nil {
		t.Fatalf("expected validation error for zero default average")
	}
	if _, err := LoadRulePack(writeRulePack(t, "day_mode: lunar\n"), nil); err == nil {
		t.Fatalf("expected error for unknown day mode")
	}
}

func TestLoadRulePackRejectsOutOfRangeValues(t *testing.T) {
	cases := map[string]string{
		"confidence base above 100":      "confidence:\n  base: 120\n  cap: 300\n",
		"confidence cap above 100":       "confidence:\n  cap: 101\n",
		"negative confidence base":       "confidence:\n  base: -1\n",
		"negative bottleneck ratio":      "bottleneck:\n  ratio: -1\n",
		"zero bottleneck ratio":          "bottleneck:\n  ratio: 0\n",
		"critical below ratio":           "bottleneck:\n  ratio: 1.3\n  critical_ratio: 1.1\n",
		"negative workload threshold":    "bottleneck:\n  high_workload_threshold: -5\n",
		"negative high risk ratio":       "risk:\n  high_ratio: -1.5\n  medium_ratio: -2\n",
		"negative medium risk ratio":     "risk:\n  medium_ratio: -1.2\n",
		"medium risk above high":         "risk:\n  high_ratio: 1.2\n  medium_ratio: 1.5\n",
		"non-positive business unit":     "bu_slowdown:\n  ET: 0\n",
		"non-positive duration slowdown": "duration_slowdown: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadRulePack(writeRulePack(t, body), nil); err == nil {
				t.Fatalf("expected validation error for %q", body)
			}
		})
	}
}

func TestDefaultRulesAreValid(t *testing.T) {
	if err := DefaultPredictionRules().Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
}

func TestShippedRulePackMatchesDefaults(t *testing.T) {
	rules, err := LoadRulePack(filepath.Join("..", "..", "configs", "rules", "default.yaml"), nil)
	if err != nil {
		t.Fatalf("load shipped rule pack: %v", err)
	}
	if !reflect.DeepEqual(rules, DefaultPredictionRules()) {
		t.Fatalf("shipped rule pack drifted from defaults: %+v", rules)
	}
}
