package incidents

import (
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
)

const (
	informativeSeverity = "info"
	shortSpanThreshold  = 7 * 24 * time.Hour
)

// Classify converts the grouped records into incidents, evaluated against now.
// Ranks go from len(groups) for the first group down to 1 for the last one.
func Classify(groups []common.MetricRecord, now time.Time) []common.Incident {
	currentHour := now.UTC().Truncate(time.Hour)
	incidents := make([]common.Incident, 0, len(groups))

	for idx, group := range groups {
		samples := make([]common.Sample, len(group.Samples))
		copy(samples, group.Samples)

		incidents = append(incidents, common.Incident{
			CorrelationKey: group.CorrelationKey,
			Component:      group.Attributes[AttributeComponent],
			Severity:       group.Attributes[AttributeSeverity],
			AlertName:      group.Attributes[AttributeAlertName],
			Namespace:      group.Attributes[AttributeNamespace],
			Layer:          group.Attributes[AttributeLayer],
			Samples:        samples,
			Rank:           len(groups) - idx,
			Informative:    group.Attributes[AttributeSeverity] == informativeSeverity,
			LongStanding:   span(samples) < shortSpanThreshold,
			Inactive:       !firedDuringHour(samples, currentHour),
		})
	}

	return incidents
}

// span is the duration between the first and the last sample, in sample order
func span(samples []common.Sample) time.Duration {
	if len(samples) == 0 {
		return 0
	}

	return samples[len(samples)-1].Timestamp.Sub(samples[0].Timestamp)
}

func firedDuringHour(samples []common.Sample, hour time.Time) bool {
	for _, s := range samples {
		if s.Timestamp.UTC().Truncate(time.Hour).Equal(hour) {
			return true
		}
	}

	return false
}
