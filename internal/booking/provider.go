// Package booking defines the vendor-neutral scheduling contract and the
// router that dispatches tool calls to the vendor adapter a business uses.
package booking

import "context"

// AvailabilityRequest asks a vendor for open slots.
type AvailabilityRequest struct {
	ServiceName string `json:"service_name"`
	Date        string `json:"date"` // YYYY-MM-DD
}

// AvailabilityResult lists open slots for the requested day.
type AvailabilityResult struct {
	Provider string   `json:"provider"`
	Slots    []string `json:"slots"`
}

// AppointmentRequest asks a vendor to book a slot.
type AppointmentRequest struct {
	ServiceName   string `json:"service_name"`
	Date          string `json:"date"` // YYYY-MM-DD
	Time          string `json:"time"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
}

// BookingResult confirms a created appointment.
type BookingResult struct {
	Provider     string `json:"provider"`
	Confirmation string `json:"confirmation"`
}

// Provider is implemented by each vendor adapter. The credential is supplied
// per call because it belongs to the business, not the adapter.
type Provider interface {
	Name() string
	CheckAvailability(ctx context.Context, credential string, req AvailabilityRequest) (*AvailabilityResult, error)
	CreateAppointment(ctx context.Context, credential string, req AppointmentRequest) (*BookingResult, error)
}
