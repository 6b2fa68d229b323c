package perspective

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/config"
)

const (
	rulesPath       = "/api/v1/rules"
	silencesPath    = "/api/v2/silences"
	queryRangePath  = "/api/v1/query_range"
	incidentsQuery  = "cluster_health_components_map"
	namespaceParam  = "namespace"
	defaultStepSecs = 300
)

// RulesURL builds the rules endpoint URL of the context
func RulesURL(ctx Context, endpoints config.EndpointsConfig, namespace string) string {
	switch ctx.ID {
	case Administrator:
		return join(endpoints.PrometheusURL, rulesPath, nil)
	case DeveloperNamespaced:
		return join(endpoints.ThanosTenancyURL, rulesPath, namespaceValues(namespace))
	default:
		return join(endpoints.MultiClusterRulesURL, rulesPath, nil)
	}
}

// SilencesURL builds the silences endpoint URL of the context
func SilencesURL(ctx Context, endpoints config.EndpointsConfig, namespace string) string {
	switch ctx.ID {
	case Administrator:
		return join(endpoints.AlertmanagerURL, silencesPath, nil)
	case DeveloperNamespaced:
		return join(endpoints.AlertmanagerTenancyURL, silencesPath, namespaceValues(namespace))
	default:
		return join(endpoints.MultiClusterAlertmanagerURL, silencesPath, nil)
	}
}

// IncidentsURL builds the range query URL of the incident time series, covering [now-rangeDuration, now]
func IncidentsURL(ctx Context, endpoints config.EndpointsConfig, namespace string, now time.Time, rangeDuration time.Duration, step time.Duration) string {
	stepSecs := int64(step / time.Second)
	if stepSecs <= 0 {
		stepSecs = defaultStepSecs
	}

	values := url.Values{}
	values.Set("query", incidentsQuery)
	values.Set("start", strconv.FormatInt(now.Add(-rangeDuration).Unix(), 10))
	values.Set("end", strconv.FormatInt(now.Unix(), 10))
	values.Set("step", strconv.FormatInt(stepSecs, 10))

	switch ctx.ID {
	case Administrator:
		return join(endpoints.PrometheusURL, queryRangePath, values)
	case DeveloperNamespaced:
		values.Set(namespaceParam, namespace)
		return join(endpoints.ThanosTenancyURL, queryRangePath, values)
	default:
		return join(endpoints.MultiClusterRulesURL, queryRangePath, values)
	}
}

func namespaceValues(namespace string) url.Values {
	values := url.Values{}
	values.Set(namespaceParam, namespace)

	return values
}

func join(base string, path string, values url.Values) string {
	result := strings.TrimRight(base, "/") + path
	if len(values) == 0 {
		return result
	}

	return result + "?" + values.Encode()
}
