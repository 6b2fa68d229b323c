package testsCommon

import (
	"context"

	"github.com/iulianpascalau/alerts-monitoring/services/monitor/common"
)

// StorageStub -
type StorageStub struct {
	SaveIncidentsHandler func(ctx context.Context, perspective string, incidents []common.Incident, recordedAt int64) error
	GetIncidentsHandler  func(ctx context.Context, perspective string) ([]common.Incident, int64, error)
	CloseHandler         func() error
}

// SaveIncidents -
func (stub *StorageStub) SaveIncidents(ctx context.Context, perspective string, incidents []common.Incident, recordedAt int64) error {
	if stub.SaveIncidentsHandler != nil {
		return stub.SaveIncidentsHandler(ctx, perspective, incidents, recordedAt)
	}

	return nil
}

// GetIncidents -
func (stub *StorageStub) GetIncidents(ctx context.Context, perspective string) ([]common.Incident, int64, error) {
	if stub.GetIncidentsHandler != nil {
		return stub.GetIncidentsHandler(ctx, perspective)
	}

	return make([]common.Incident, 0), 0, nil
}

// Close -
func (stub *StorageStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *StorageStub) IsInterfaceNil() bool {
	return stub == nil
}
