package control

import (
	"errors"
	"fmt"

	"smartstay-cli/api"
)

const (
	offlineMessage      = "System Offline. Please restart backend service."
	allocationFallback  = "Allocation Failed"
	scenarioMessage     = "Demonstration Allocation Failed"
	simpleActionMessage = "Action failed."
)

type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return offlineMessage }
func (e *TransportError) Unwrap() error { return e.Err }

type AllocationError struct {
	Message    string
	StatusCode int
	Err        error
}

func (e *AllocationError) Error() string { return e.Message }
func (e *AllocationError) Unwrap() error { return e.Err }

// ScenarioError reports any failure while seeding or booking a scenario.
// The cause is kept for logs only.
type ScenarioError struct {
	Scenario int
	Err      error
}

func (e *ScenarioError) Error() string { return scenarioMessage }
func (e *ScenarioError) Unwrap() error { return e.Err }

type ActionError struct {
	Action string
	Err    error
}

func (e *ActionError) Error() string { return simpleActionMessage }
func (e *ActionError) Unwrap() error { return e.Err }

func allocationError(err error) *AllocationError {
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		message := statusErr.Detail()
		if message == "" {
			message = allocationFallback
		}
		return &AllocationError{Message: message, StatusCode: statusErr.StatusCode, Err: err}
	}
	return &AllocationError{Message: err.Error(), Err: err}
}

func invalidInventory(err error) error {
	return fmt.Errorf("invalid inventory: %w", err)
}
