package fetcher

import (
	"encoding/hex"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"
	"github.com/tidwall/gjson"
)

const (
	rulesPath              = "data.groups"
	seriesPath             = "data.result"
	rootPath               = "@this"
	alertingRuleType       = "alerting"
	alertNameMatcher       = "alertname"
	correlationAttribute   = "group_id"
	prometheusLabel        = "prometheus"
	platformPrometheusPref = "openshift-monitoring/"
)

var stateWeight = map[common.AlertState]int{
	common.AlertInactive: 0,
	common.AlertPending:  1,
	common.AlertFiring:   2,
}

// ParseRules reshapes a rules endpoint response into alerting rules and their alerts. Recording rules are skipped.
func ParseRules(body []byte) (common.RulesSnapshot, error) {
	if !gjson.ValidBytes(body) {
		return common.RulesSnapshot{}, newMalformed(rootPath, "invalid JSON")
	}

	groups := gjson.GetBytes(body, rulesPath)
	if !groups.IsArray() {
		return common.RulesSnapshot{}, newMalformed(rulesPath, "missing or not an array")
	}

	snapshot := common.RulesSnapshot{
		Rules:  make([]common.Rule, 0),
		Alerts: make([]common.Alert, 0),
	}
	for _, group := range groups.Array() {
		groupName := group.Get("name").String()
		for _, r := range group.Get("rules").Array() {
			ruleType := r.Get("type").String()
			if len(ruleType) > 0 && ruleType != alertingRuleType {
				continue
			}

			rule := common.Rule{
				Group:       groupName,
				Name:        r.Get("name").String(),
				Query:       r.Get("query").String(),
				Duration:    r.Get("duration").Float(),
				Labels:      stringMap(r.Get("labels")),
				Annotations: stringMap(r.Get("annotations")),
				Health:      r.Get("health").String(),
				Type:        alertingRuleType,
				State:       common.AlertInactive,
			}
			rule.ID = ruleID(rule)

			for _, a := range r.Get("alerts").Array() {
				alert := parseAlert(a, rule)
				if stateWeight[alert.State] > stateWeight[rule.State] {
					rule.State = alert.State
				}
				snapshot.Alerts = append(snapshot.Alerts, alert)
				rule.NumAlerts++
			}

			snapshot.Rules = append(snapshot.Rules, rule)
		}
	}

	return snapshot, nil
}

func parseAlert(a gjson.Result, rule common.Rule) common.Alert {
	labels := stringMap(a.Get("labels"))

	state := common.AlertState(a.Get("state").String())
	if _, known := stateWeight[state]; !known {
		state = common.AlertInactive
	}

	return common.Alert{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Labels:      labels,
		Annotations: stringMap(a.Get("annotations")),
		State:       state,
		ActiveAt:    parseTime(a.Get("activeAt")),
		Value:       a.Get("value").String(),
		Source:      alertSource(labels, rule.Labels),
	}
}

func alertSource(alertLabels map[string]string, ruleLabels map[string]string) string {
	prometheus, found := alertLabels[prometheusLabel]
	if !found {
		prometheus = ruleLabels[prometheusLabel]
	}
	if strings.HasPrefix(prometheus, platformPrometheusPref) {
		return perspective.SourcePlatform
	}

	return perspective.SourceUser
}

// ruleID is a stable hash of the fields identifying a rule, so the same rule gets the same id on every fetch
func ruleID(rule common.Rule) string {
	h := fnv.New64a()
	write := func(s string) {
		_, _ = h.Write([]byte(s))
		_, _ = h.Write([]byte{0})
	}

	write(rule.Group)
	write(rule.Name)
	write(rule.Query)
	write(time.Duration(rule.Duration * float64(time.Second)).String())

	keys := make([]string, 0, len(rule.Labels))
	for k := range rule.Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write(k)
		write(rule.Labels[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// FilterAlertsBySource returns the alerts of the provided source. An empty source returns all alerts.
func FilterAlertsBySource(alerts []common.Alert, source string) []common.Alert {
	if len(source) == 0 {
		return alerts
	}

	filtered := make([]common.Alert, 0, len(alerts))
	for _, a := range alerts {
		if a.Source == source {
			filtered = append(filtered, a)
		}
	}

	return filtered
}

// ParseSilences parses a silences endpoint response
func ParseSilences(body []byte) ([]common.Silence, error) {
	if !gjson.ValidBytes(body) {
		return nil, newMalformed(rootPath, "invalid JSON")
	}

	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, newMalformed(rootPath, "not an array")
	}

	silences := make([]common.Silence, 0)
	for _, s := range root.Array() {
		silence := common.Silence{
			ID:        s.Get("id").String(),
			State:     s.Get("status.state").String(),
			StartsAt:  parseTime(s.Get("startsAt")),
			EndsAt:    parseTime(s.Get("endsAt")),
			UpdatedAt: parseTime(s.Get("updatedAt")),
			Comment:   s.Get("comment").String(),
			CreatedBy: s.Get("createdBy").String(),
			Matchers:  make([]common.Matcher, 0),
		}

		for _, m := range s.Get("matchers").Array() {
			isEqual := m.Get("isEqual")
			matcher := common.Matcher{
				Name:    m.Get("name").String(),
				Value:   m.Get("value").String(),
				IsRegex: m.Get("isRegex").Bool(),
				IsEqual: !isEqual.Exists() || isEqual.Bool(),
			}
			if matcher.Name == alertNameMatcher && len(silence.DerivedName) == 0 {
				silence.DerivedName = matcher.Value
			}
			silence.Matchers = append(silence.Matchers, matcher)
		}

		silences = append(silences, silence)
	}

	return silences, nil
}

// ParseIncidentSeries parses a range query response into metric records keyed by the group_id label.
// Absent or malformed values yield an empty sample list.
func ParseIncidentSeries(body []byte) ([]common.MetricRecord, error) {
	if !gjson.ValidBytes(body) {
		return nil, newMalformed(rootPath, "invalid JSON")
	}

	result := gjson.GetBytes(body, seriesPath)
	if !result.IsArray() {
		return nil, newMalformed(seriesPath, "missing or not an array")
	}

	records := make([]common.MetricRecord, 0)
	for _, series := range result.Array() {
		attributes := stringMap(series.Get("metric"))
		record := common.MetricRecord{
			CorrelationKey: attributes[correlationAttribute],
			Attributes:     attributes,
			Samples:        make([]common.Sample, 0),
		}

		for _, pair := range series.Get("values").Array() {
			values := pair.Array()
			if len(values) < 2 {
				continue
			}

			record.Samples = append(record.Samples, common.Sample{
				Timestamp: unixSeconds(values[0].Float()),
				Value:     values[1].String(),
			})
		}

		records = append(records, record)
	}

	return records, nil
}

func stringMap(r gjson.Result) map[string]string {
	m := make(map[string]string)
	if !r.IsObject() {
		return m
	}

	r.ForEach(func(key, value gjson.Result) bool {
		m[key.String()] = value.String()
		return true
	})

	return m
}

func parseTime(r gjson.Result) time.Time {
	t, err := time.Parse(time.RFC3339Nano, r.String())
	if err != nil {
		return time.Time{}
	}

	return t
}

func unixSeconds(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
