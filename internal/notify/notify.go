package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/flighttrack/internal/kafka"
)

// Printer is the default status-change subscriber: it writes a
// human-readable line per event. Swap in a real push channel here.
type Printer struct{}

func NewPrinter() *Printer {
	return &Printer{}
}

func (p *Printer) Notify(ctx context.Context, msg kafka.StatusChangeMessage) error {
	fmt.Printf("flight %s (%s) changed status: %s -> %s at %s\n",
		msg.FlightNumber, msg.Airline, msg.PreviousStatus, msg.NewStatus, msg.OccurredAt.Format("15:04:05"))
	return nil
}
