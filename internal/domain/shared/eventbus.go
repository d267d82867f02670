package shared

import "context"

// EventHandler reacts to published domain events. An empty EventTypes
// subscribes the handler to every event.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	EventTypes() []string
}

// EventPublisher is what services publish through after a commit
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}
