package perspective

// ID identifies one operating context of a session
type ID string

const (
	// Administrator is the cluster-admin view
	Administrator ID = "admin"
	// DeveloperNamespaced is the per-namespace developer view
	DeveloperNamespaced ID = "dev"
	// MultiCluster is the multi-cluster view
	MultiCluster ID = "acm"
)

// Context holds the state keys and identifiers resolved for a perspective
type Context struct {
	ID               ID     `json:"id"`
	RulesKey         string `json:"rulesKey"`
	AlertsKey        string `json:"alertsKey"`
	SilencesKey      string `json:"silencesKey"`
	IncidentsKey     string `json:"incidentsKey"`
	PollingContextID string `json:"pollingContextId"`
	// DefaultSource is the default alert source filter. Empty means all sources.
	DefaultSource string `json:"defaultSource"`
}

// SourcePlatform marks alerts produced by the platform monitoring stack
const SourcePlatform = "platform"

// SourceUser marks alerts produced by user workload monitoring
const SourceUser = "user"

var contexts = map[ID]Context{
	Administrator: {
		ID:               Administrator,
		RulesKey:         "rules",
		AlertsKey:        "alerts",
		SilencesKey:      "silences",
		IncidentsKey:     "incidents",
		PollingContextID: "monitoring",
		DefaultSource:    SourcePlatform,
	},
	DeveloperNamespaced: {
		ID:               DeveloperNamespaced,
		RulesKey:         "devRules",
		AlertsKey:        "devAlerts",
		SilencesKey:      "devSilences",
		IncidentsKey:     "devIncidents",
		PollingContextID: "dev-monitoring",
		DefaultSource:    SourceUser,
	},
	MultiCluster: {
		ID:               MultiCluster,
		RulesKey:         "acmRules",
		AlertsKey:        "acmAlerts",
		SilencesKey:      "acmSilences",
		IncidentsKey:     "acmIncidents",
		PollingContextID: "multicloud-monitoring",
		DefaultSource:    "",
	},
}

// Resolve returns the context of the provided perspective. Unknown ids fail closed to the MultiCluster context.
func Resolve(id ID) Context {
	ctx, found := contexts[id]
	if !found {
		return contexts[MultiCluster]
	}

	return ctx
}

// IsKnown returns true if the id is one of the defined perspectives
func IsKnown(id ID) bool {
	_, found := contexts[id]
	return found
}

// Keys returns all the state keys of the context
func (c Context) Keys() []string {
	return []string{c.RulesKey, c.AlertsKey, c.SilencesKey, c.IncidentsKey}
}
