package notify

import (
	"fmt"

	"framing-command-center/internal/orders"
)

// Message renders the SMS body for an order event.
func Message(o orders.Order, kind orders.NotificationKind) string {
	name := o.CustomerName
	if name == "" {
		name = "there"
	}
	if kind == orders.NotifyCreated {
		return fmt.Sprintf("Hi %s, we received your framing order %s (%s, %s). We'll text you as it moves through the shop.",
			name, o.OrderNumber, o.FrameType, o.Dimensions)
	}

	switch o.Status {
	case orders.StatusReady:
		return fmt.Sprintf("Hi %s, your framing order %s is ready for pickup!", name, o.OrderNumber)
	case orders.StatusCompleted:
		return fmt.Sprintf("Thanks %s! Order %s is complete. We hope you love your frame.", name, o.OrderNumber)
	case orders.StatusCancelled:
		return fmt.Sprintf("Hi %s, order %s has been cancelled. Call us with any questions.", name, o.OrderNumber)
	default:
		return fmt.Sprintf("Hi %s, your framing order %s is now at: %s.", name, o.OrderNumber, o.Status.Label())
	}
}
