package servers

import (
	"github.com/qmdx00/lifecycle"
)

var (
	_ Server = (*httpServer)(nil)
	_ Server = (*baseServer)(nil)

	_ Application = (*lifecycle.App)(nil)
)

type Server interface {
	lifecycle.Server
}

// Application is the part of *lifecycle.App that main drives.
type Application interface {
	ID() string
	Name() string
	Version() string
	Attach(name string, server lifecycle.Server)
	Run() error
}
