package worker

import (
	"github.com/spec-kit/salon-token-service/internal/events"
	"github.com/spec-kit/salon-token-service/internal/relay"
)

// StartRelayWorker registers the notification relay on the dispatcher.
func StartRelayWorker(r *relay.RedisRelay, dispatcher events.Dispatcher) {
	if r == nil {
		return
	}
	r.Register(dispatcher)
}
