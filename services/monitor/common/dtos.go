package common

import "time"

// PollStatus is the state of one poll cycle
type PollStatus string

const (
	// StatusLoading is published at the start of every poll cycle
	StatusLoading PollStatus = "loading"
	// StatusLoaded is published when the fetch succeeded
	StatusLoaded PollStatus = "loaded"
	// StatusErrored is published when the fetch failed
	StatusErrored PollStatus = "errored"
)

// PollState is the latest known state of one (perspective, resource-kind) key
type PollState struct {
	Status  PollStatus  `json:"status"`
	Payload interface{} `json:"payload,omitempty"`
	Error   error       `json:"-"`
}

// ErrorMessage returns the error text or an empty string
func (ps PollState) ErrorMessage() string {
	if ps.Error == nil {
		return ""
	}

	return ps.Error.Error()
}

// Sample is one (timestamp, value) point of a time series
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Value     string    `json:"value"`
}

// MetricRecord is one raw series returned by a range query
type MetricRecord struct {
	CorrelationKey string            `json:"correlationKey"`
	Attributes     map[string]string `json:"attributes"`
	Samples        []Sample          `json:"samples"`
}

// Incident is the classified aggregation of the series sharing a correlation key
type Incident struct {
	CorrelationKey string   `json:"correlationKey"`
	Component      string   `json:"component"`
	Severity       string   `json:"severity"`
	AlertName      string   `json:"alertName"`
	Namespace      string   `json:"namespace"`
	Layer          string   `json:"layer"`
	Samples        []Sample `json:"samples"`
	Rank           int      `json:"rank"`
	Informative    bool     `json:"informative"`
	// LongStanding is true when the samples span less than 7 days
	LongStanding bool `json:"longStanding"`
	// Inactive is true when no sample falls in the current UTC hour
	Inactive bool `json:"inactive"`
}

// AlertState is the evaluation state of an alert
type AlertState string

const (
	// AlertInactive -
	AlertInactive AlertState = "inactive"
	// AlertPending -
	AlertPending AlertState = "pending"
	// AlertFiring -
	AlertFiring AlertState = "firing"
)

// Rule is an alerting query definition
type Rule struct {
	ID          string            `json:"id"`
	Group       string            `json:"group"`
	Name        string            `json:"name"`
	Query       string            `json:"query"`
	Duration    float64           `json:"duration"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	Health      string            `json:"health"`
	Type        string            `json:"type"`
	State       AlertState        `json:"state"`
	NumAlerts   int               `json:"numAlerts"`
}

// Alert is a single instance of a rule
type Alert struct {
	RuleID      string            `json:"ruleId"`
	RuleName    string            `json:"ruleName"`
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	State       AlertState        `json:"state"`
	ActiveAt    time.Time         `json:"activeAt"`
	Value       string            `json:"value"`
	Source      string            `json:"source"`
}

// RulesSnapshot holds the rules and the alerts reshaped from one rules endpoint response
type RulesSnapshot struct {
	Rules  []Rule  `json:"rules"`
	Alerts []Alert `json:"alerts"`
}

// Matcher is one label matcher of a silence
type Matcher struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	IsRegex bool   `json:"isRegex"`
	IsEqual bool   `json:"isEqual"`
}

// Silence is a time-bounded suppression of the alerts matching its matchers
type Silence struct {
	ID          string    `json:"id"`
	State       string    `json:"state"`
	Matchers    []Matcher `json:"matchers"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Comment     string    `json:"comment"`
	CreatedBy   string    `json:"createdBy"`
	DerivedName string    `json:"name"`
}
