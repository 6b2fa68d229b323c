package testsCommon

import (
	"context"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
)

// FetcherStub -
type FetcherStub struct {
	FetchRulesHandler          func(ctx context.Context, url string) (common.RulesSnapshot, error)
	FetchSilencesHandler       func(ctx context.Context, url string) ([]common.Silence, error)
	FetchIncidentSeriesHandler func(ctx context.Context, url string) ([]common.MetricRecord, error)
}

// FetchRules -
func (stub *FetcherStub) FetchRules(ctx context.Context, url string) (common.RulesSnapshot, error) {
	if stub.FetchRulesHandler != nil {
		return stub.FetchRulesHandler(ctx, url)
	}

	return common.RulesSnapshot{}, nil
}

// FetchSilences -
func (stub *FetcherStub) FetchSilences(ctx context.Context, url string) ([]common.Silence, error) {
	if stub.FetchSilencesHandler != nil {
		return stub.FetchSilencesHandler(ctx, url)
	}

	return make([]common.Silence, 0), nil
}

// FetchIncidentSeries -
func (stub *FetcherStub) FetchIncidentSeries(ctx context.Context, url string) ([]common.MetricRecord, error) {
	if stub.FetchIncidentSeriesHandler != nil {
		return stub.FetchIncidentSeriesHandler(ctx, url)
	}

	return make([]common.MetricRecord, 0), nil
}

// IsInterfaceNil -
func (stub *FetcherStub) IsInterfaceNil() bool {
	return stub == nil
}
