package notify

import (
	"fmt"
	"strings"

	"aura/internal/events"
)

// Summary renders e as a short plain-text message for staff.
func Summary(e events.Event) string {
	var b strings.Builder
	switch {
	case e.Reservation != nil:
		r := e.Reservation
		switch e.Type {
		case events.ReservationCreated:
			b.WriteString("New reservation")
		default:
			b.WriteString("Reservation updated")
		}
		fmt.Fprintf(&b, " #%d\n%s at %s, %d guests\nStatus: %s", r.ID, r.Date, r.Time, r.Guests, r.Status)
		if r.TableNumber > 0 {
			fmt.Fprintf(&b, ", table %d", r.TableNumber)
		}
		if r.SpecialRequests != "" {
			fmt.Fprintf(&b, "\nRequests: %s", r.SpecialRequests)
		}
	case e.Order != nil:
		o := e.Order
		switch e.Type {
		case events.OrderCreated:
			b.WriteString("New order")
		default:
			b.WriteString("Order updated")
		}
		fmt.Fprintf(&b, " #%d\n%s, %s\n%s\nStatus: %s, total %s", o.ID, o.CustomerName, o.Phone, o.DeliveryAddress, o.Status, o.Total)
		for _, it := range o.Items {
			fmt.Fprintf(&b, "\n%d x %s", it.Quantity, it.Name)
		}
	default:
		b.WriteString(string(e.Type))
	}
	if e.Actor != "" {
		fmt.Fprintf(&b, "\nBy: %s", e.Actor)
	}
	return b.String()
}
