package shared

import "context"

// EventHandler handles domain events
type EventHandler interface {
	// Handle processes a domain event
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes returns the event types this handler is interested in
	EventTypes() []string
}

// EventPublisher publishes domain events.
//
// Dispatch is synchronous and in-process: handlers run in the caller's
// stack, in registration order, before Publish returns. A handler error
// aborts dispatch and is returned to the publisher, so a failed reaction
// (for example split-rule validation) fails the triggering operation.
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber subscribes to domain events
type EventSubscriber interface {
	// Subscribe registers a handler for the event types it declares
	Subscribe(handler EventHandler, eventTypes ...string)
	// Unsubscribe removes a handler from the subscription list
	Unsubscribe(handler EventHandler)
}

// EventBus combines publisher and subscriber capabilities
type EventBus interface {
	EventPublisher
	EventSubscriber
}

// PublishAndClear dispatches and clears an aggregate's pending events.
// Callers invoke it inside their transaction scope so a handler error
// aborts the save the events belong to.
func PublishAndClear(ctx context.Context, publisher EventPublisher, aggregate AggregateRoot) error {
	events := aggregate.GetDomainEvents()
	if len(events) == 0 {
		return nil
	}
	aggregate.ClearDomainEvents()
	return publisher.Publish(ctx, events...)
}
