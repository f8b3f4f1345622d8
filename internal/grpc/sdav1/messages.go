package sdav1

import "time"

// Classification carries the routing facts as free-form codes.
type Classification struct {
	BusinessUnit     string `json:"business_unit"`
	DurationCategory string `json:"duration_category"`
	SafetyRelevant   bool   `json:"safety_relevant"`
}

// ApprovalStep mirrors one routed step.
type ApprovalStep struct {
	ID           string     `json:"id"`
	Role         string     `json:"role"`
	Required     bool       `json:"required"`
	Status       string     `json:"status"`
	ApproverName string     `json:"approver_name,omitempty"`
	DecisionDate *time.Time `json:"decision_date,omitempty"`
	Comment      string     `json:"comment,omitempty"`
}

// HistoricalStat is the wire form of per-role approval history.
type HistoricalStat struct {
	Role        string     `json:"role"`
	AvgDays     float64    `json:"avg_days"`
	SampleCount int        `json:"sample_count"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// StepPrediction is the wire form of a per-step estimate.
type StepPrediction struct {
	StepID            string    `json:"step_id"`
	Role              string    `json:"role"`
	ExpectedDays      float64   `json:"expected_days"`
	ExpectedDate      time.Time `json:"expected_date"`
	Confidence        float64   `json:"confidence"`
	RiskLevel         string    `json:"risk_level"`
	HistoricalAvgDays float64   `json:"historical_avg_days"`
}

// BottleneckWarning is the wire form of a bottleneck diagnosis.
type BottleneckWarning struct {
	StepID             string   `json:"step_id"`
	Role               string   `json:"role"`
	Issue              string   `json:"issue"`
	Severity           string   `json:"severity"`
	CurrentAvgDays     float64  `json:"current_avg_days"`
	HistoricalAvgDays  float64  `json:"historical_avg_days"`
	SuggestedDelegates []string `json:"suggested_delegates,omitempty"`
	Message            string   `json:"message"`
}

// Prediction is the aggregate timeline estimate.
type Prediction struct {
	ExpectedCompletionDate time.Time            `json:"expected_completion_date"`
	Confidence             int                  `json:"confidence"`
	EstimatedDays          float64              `json:"estimated_days"`
	Steps                  []*StepPrediction    `json:"steps"`
	Bottlenecks            []*BottleneckWarning `json:"bottlenecks"`
}

// DroppedDecision reports a decision lost on re-routing.
type DroppedDecision struct {
	Step   *ApprovalStep `json:"step"`
	Reason string        `json:"reason"`
}

// Reconciliation summarises decisions carried across a re-route.
type Reconciliation struct {
	Carried int                `json:"carried"`
	Dropped []*DroppedDecision `json:"dropped,omitempty"`
}

type RoutingRequest struct {
	Classification *Classification `json:"classification"`
}

type RoutingResponse struct {
	Steps []*ApprovalStep `json:"steps"`
}

// PredictRequest asks for a timeline over explicit steps. When both HistoricalStats
// and Workload are omitted the service predicts against its current snapshot.
type PredictRequest struct {
	Steps            []*ApprovalStep   `json:"steps"`
	RequestDate      *time.Time        `json:"request_date"`
	BusinessUnit     string            `json:"business_unit"`
	DurationCategory string            `json:"duration_category"`
	HistoricalStats  []*HistoricalStat `json:"historical_stats,omitempty"`
	Workload         map[string]int    `json:"workload,omitempty"`
}

type PredictResponse struct {
	Prediction *Prediction `json:"prediction"`
}

// EvaluateRequest routes and predicts a deviation in one call. PreviousSteps, when
// present, have their decisions reconciled onto the new route.
type EvaluateRequest struct {
	DeviationID    string          `json:"deviation_id,omitempty"`
	Classification *Classification `json:"classification"`
	RequestDate    *time.Time      `json:"request_date,omitempty"`
	PreviousSteps  []*ApprovalStep `json:"previous_steps,omitempty"`
}

type EvaluateResponse struct {
	DeviationID         string          `json:"deviation_id"`
	Steps               []*ApprovalStep `json:"steps"`
	Prediction          *Prediction     `json:"prediction"`
	Reconciliation      *Reconciliation `json:"reconciliation,omitempty"`
	SnapshotRefreshedAt *time.Time      `json:"snapshot_refreshed_at,omitempty"`
}

type ReconcileRequest struct {
	Classification *Classification `json:"classification"`
	PreviousSteps  []*ApprovalStep `json:"previous_steps"`
}

type ReconcileResponse struct {
	Steps          []*ApprovalStep `json:"steps"`
	Reconciliation *Reconciliation `json:"reconciliation"`
}

type SnapshotRequest struct{}

type SnapshotResponse struct {
	RefreshedAt     *time.Time        `json:"refreshed_at,omitempty"`
	HistoricalStats []*HistoricalStat `json:"historical_stats"`
	Workload        map[string]int    `json:"workload"`
}

type HealthRequest struct{}

type HealthResponse struct {
	Status string `json:"status"`
}
