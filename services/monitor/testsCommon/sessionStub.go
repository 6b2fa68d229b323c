package testsCommon

import "github.com/iulianpascalau/alerts-monitoring/services/monitor/perspective"

// SessionStub -
type SessionStub struct {
	SwitchPerspectiveHandler func(id perspective.ID, namespace string) perspective.Context
	ActiveContextHandler     func() (perspective.Context, string, bool)
}

// SwitchPerspective -
func (stub *SessionStub) SwitchPerspective(id perspective.ID, namespace string) perspective.Context {
	if stub.SwitchPerspectiveHandler != nil {
		return stub.SwitchPerspectiveHandler(id, namespace)
	}

	return perspective.Resolve(id)
}

// ActiveContext -
func (stub *SessionStub) ActiveContext() (perspective.Context, string, bool) {
	if stub.ActiveContextHandler != nil {
		return stub.ActiveContextHandler()
	}

	return perspective.Resolve(perspective.Administrator), "", true
}

// IsInterfaceNil -
func (stub *SessionStub) IsInterfaceNil() bool {
	return stub == nil
}
