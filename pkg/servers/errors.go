package servers

import (
	"fmt"
)

// ServerError reports which server failed and in which lifecycle stage.
type ServerError struct {
	Server string
	Stage  string
	Err    error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server %s failed to %s: %v", e.Server, e.Stage, e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

func ErrServerFailedToStart(name string, err error) error {
	return &ServerError{Server: name, Stage: "start", Err: err}
}

func ErrServerFailedToStop(name string, err error) error {
	return &ServerError{Server: name, Stage: "stop", Err: err}
}
