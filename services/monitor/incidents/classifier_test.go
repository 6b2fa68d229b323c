package incidents

import (
	"testing"
	"time"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupWithSamples(key string, timestamps ...time.Time) common.MetricRecord {
	samples := make([]common.Sample, 0, len(timestamps))
	for _, ts := range timestamps {
		samples = append(samples, common.Sample{Timestamp: ts, Value: "1"})
	}

	return common.MetricRecord{
		CorrelationKey: key,
		Attributes:     map[string]string{},
		Samples:        samples,
	}
}

func TestClassify_Rank(t *testing.T) {
	t.Parallel()

	numGroups := 5
	groups := make([]common.MetricRecord, 0, numGroups)
	for i := 0; i < numGroups; i++ {
		groups = append(groups, groupWithSamples(string(rune('a'+i)), baseTime))
	}

	incidents := Classify(groups, baseTime)
	require.Len(t, incidents, numGroups)

	seen := make(map[int]struct{})
	for i, incident := range incidents {
		assert.Equal(t, numGroups-i, incident.Rank)
		assert.Equal(t, groups[i].CorrelationKey, incident.CorrelationKey)
		seen[incident.Rank] = struct{}{}
	}
	for rank := 1; rank <= numGroups; rank++ {
		_, found := seen[rank]
		assert.True(t, found)
	}

	assert.Empty(t, Classify(nil, baseTime))
}

func TestClassify_Attributes(t *testing.T) {
	t.Parallel()

	groups := []common.MetricRecord{
		{
			CorrelationKey: "g1",
			Attributes: map[string]string{
				AttributeComponent: "etcd",
				AttributeSeverity:  "info",
				AttributeAlertName: "EtcdMembersDown",
				AttributeNamespace: "openshift-etcd",
				AttributeLayer:     "core",
			},
		},
		{
			CorrelationKey: "g2",
			Attributes:     map[string]string{AttributeSeverity: "weird"},
		},
		{
			CorrelationKey: "g3",
		},
	}

	incidents := Classify(groups, baseTime)
	require.Len(t, incidents, 3)

	assert.Equal(t, "etcd", incidents[0].Component)
	assert.Equal(t, "info", incidents[0].Severity)
	assert.Equal(t, "EtcdMembersDown", incidents[0].AlertName)
	assert.Equal(t, "openshift-etcd", incidents[0].Namespace)
	assert.Equal(t, "core", incidents[0].Layer)
	assert.True(t, incidents[0].Informative)

	assert.False(t, incidents[1].Informative)
	assert.Empty(t, incidents[1].Component)

	assert.False(t, incidents[2].Informative)
	assert.Empty(t, incidents[2].Severity)
}

func TestClassify_LongStandingBoundary(t *testing.T) {
	t.Parallel()

	week := 7 * 24 * time.Hour
	groups := []common.MetricRecord{
		groupWithSamples("just-under", baseTime, baseTime.Add(week-time.Second)),
		groupWithSamples("exactly", baseTime, baseTime.Add(week)),
		groupWithSamples("single", baseTime),
		groupWithSamples("empty"),
	}

	incidents := Classify(groups, baseTime)
	assert.True(t, incidents[0].LongStanding)
	assert.False(t, incidents[1].LongStanding)
	assert.True(t, incidents[2].LongStanding)
	assert.True(t, incidents[3].LongStanding)
}

func TestClassify_Inactive(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 1, 10, 15, 0, 0, time.UTC)
	groups := []common.MetricRecord{
		groupWithSamples("current-hour", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 59, 59, 0, time.UTC)),
		groupWithSamples("previous-hour", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 9, 59, 59, 0, time.UTC)),
		groupWithSamples("same-hour-other-day", time.Date(2023, 12, 31, 10, 30, 0, 0, time.UTC)),
		groupWithSamples("local-zone", time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("UTC+2", 7200))),
		groupWithSamples("empty"),
	}

	incidents := Classify(groups, now)
	assert.False(t, incidents[0].Inactive)
	assert.True(t, incidents[1].Inactive)
	assert.True(t, incidents[2].Inactive)
	assert.False(t, incidents[3].Inactive)
	assert.True(t, incidents[4].Inactive)
}

func TestClassify_SamplesCopied(t *testing.T) {
	t.Parallel()

	groups := []common.MetricRecord{
		groupWithSamples("g1", baseTime.Add(time.Hour), baseTime),
	}

	incidents := Classify(groups, baseTime)
	require.Len(t, incidents[0].Samples, 2)
	assert.Equal(t, groups[0].Samples, incidents[0].Samples)

	incidents[0].Samples[0].Value = "changed"
	assert.Equal(t, "1", groups[0].Samples[0].Value)
}
