package models

import "time"

// HistoricalStat summarises past approval durations for one role.
type HistoricalStat struct {
	AvgDays     float64   `json:"avg_days"`
	SampleCount int       `json:"sample_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// RiskLevel grades how far a step's expectation drifts from its history.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// BottleneckIssue classifies the reason behind a bottleneck.
type BottleneckIssue string

const (
	IssueSlowApprover BottleneckIssue = "slow_approver"
	IssueHighWorkload BottleneckIssue = "high_workload"
	IssueVacation     BottleneckIssue = "vacation"
	IssueUnknown      BottleneckIssue = "unknown"
)

// BottleneckSeverity grades a bottleneck warning.
type BottleneckSeverity string

const (
	SeverityWarning  BottleneckSeverity = "warning"
	SeverityCritical BottleneckSeverity = "critical"
)

// StepPrediction is the expected outcome for one approval step.
type StepPrediction struct {
	StepID            string    `json:"step_id"`
	Role              Role      `json:"role"`
	ExpectedDays      float64   `json:"expected_days"`
	ExpectedDate      time.Time `json:"expected_date"`
	Confidence        float64   `json:"confidence"`
	RiskLevel         RiskLevel `json:"risk_level"`
	HistoricalAvgDays float64   `json:"historical_avg_days"`
}

// BottleneckWarning flags a step expected to run well past its historical average.
type BottleneckWarning struct {
	StepID             string             `json:"step_id"`
	Role               Role               `json:"role"`
	Issue              BottleneckIssue    `json:"issue"`
	Severity           BottleneckSeverity `json:"severity"`
	CurrentAvgDays     float64            `json:"current_avg_days"`
	HistoricalAvgDays  float64            `json:"historical_avg_days"`
	SuggestedDelegates []string           `json:"suggested_delegates,omitempty"`
	Message            string             `json:"message"`
}

// ApprovalPrediction aggregates the per-step timeline for a routed deviation.
type ApprovalPrediction struct {
	ExpectedCompletionDate time.Time           `json:"expected_completion_date"`
	Confidence             int                 `json:"confidence"`
	EstimatedDays          float64             `json:"estimated_days"`
	Steps                  []StepPrediction    `json:"steps"`
	Bottlenecks            []BottleneckWarning `json:"bottlenecks"`
}
