package incidents

import (
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
)

const (
	// AttributeAlertName is the synthetic alert name of a series
	AttributeAlertName = "src_alertname"
	// AttributeSeverity -
	AttributeSeverity = "src_severity"
	// AttributeNamespace -
	AttributeNamespace = "src_namespace"
	// AttributeComponent -
	AttributeComponent = "component"
	// AttributeLayer -
	AttributeLayer = "layer"

	// watchdogAlertName is the permanent heartbeat alert, never an incident
	watchdogAlertName = "Watchdog"
)

// sampleKey is the canonical identity of a sample
type sampleKey struct {
	unixNano int64
	value    string
}

type partition struct {
	record common.MetricRecord
	seen   map[sampleKey]struct{}
}

// Group merges the records sharing a correlation key. The output follows the order in which the keys first appear.
// Attributes are united with the first seen value winning on conflicts. Samples are deduplicated on exact
// (timestamp, value) equality and kept in stable append order. Watchdog records are dropped.
func Group(records []common.MetricRecord) []common.MetricRecord {
	partitions := make(map[string]*partition)
	order := make([]string, 0)

	for _, record := range records {
		if record.Attributes[AttributeAlertName] == watchdogAlertName {
			continue
		}

		p, found := partitions[record.CorrelationKey]
		if !found {
			p = &partition{
				record: common.MetricRecord{
					CorrelationKey: record.CorrelationKey,
					Attributes:     make(map[string]string, len(record.Attributes)),
					Samples:        make([]common.Sample, 0, len(record.Samples)),
				},
				seen: make(map[sampleKey]struct{}),
			}
			partitions[record.CorrelationKey] = p
			order = append(order, record.CorrelationKey)
		}

		p.merge(record)
	}

	grouped := make([]common.MetricRecord, 0, len(order))
	for _, key := range order {
		grouped = append(grouped, partitions[key].record)
	}

	return grouped
}

func (p *partition) merge(record common.MetricRecord) {
	for name, value := range record.Attributes {
		_, exists := p.record.Attributes[name]
		if !exists {
			p.record.Attributes[name] = value
		}
	}

	for _, sample := range record.Samples {
		key := sampleKey{
			unixNano: timestampKey(sample.Timestamp),
			value:    sample.Value,
		}
		_, duplicated := p.seen[key]
		if duplicated {
			continue
		}

		p.seen[key] = struct{}{}
		p.record.Samples = append(p.record.Samples, sample)
	}
}

func timestampKey(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}

	return t.UnixNano()
}
