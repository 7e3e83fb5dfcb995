package servers

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"club-directory/pkg/resources"
)

// baseServer keeps the application alive and releases shared resources
// (database pool, telemetry) when the application stops.
type baseServer struct {
	name      string
	done      chan struct{}
	once      sync.Once
	closables []resources.Closable
}

func BuildBaseServer(closables ...resources.Closable) (string, Server) {
	server := NewBaseServer(closables...)
	return server.name, server
}

func NewBaseServer(closables ...resources.Closable) *baseServer {
	return &baseServer{
		name:      "base-server",
		done:      make(chan struct{}),
		closables: closables,
	}
}

func (server *baseServer) Run(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("stage", "startup").Str("component", server.name).Msg("starting up")

	select {
	case <-server.done:
	case <-ctx.Done():
	}

	return nil
}

func (server *baseServer) Stop(ctx context.Context) error {
	server.once.Do(func() {
		log.Ctx(ctx).Info().Str("stage", "shut down").Str("component", server.name).Msg("stopping")
		defer log.Ctx(ctx).Info().Str("stage", "shut down").Str("component", server.name).Msg("stopped")

		for _, closable := range server.closables {
			closable.Close()
		}

		close(server.done)
	})

	return nil
}
