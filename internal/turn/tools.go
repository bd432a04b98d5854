package turn

import "github.com/ananta-systems/ai-inbox/internal/oracle"

// Tool names the decision model may call.
const (
	ToolCheckAvailability = "check_availability"
	ToolCreateAppointment = "create_appointment"
)

// ToolSpecs returns the catalog offered to the model on every decision call.
func ToolSpecs() []oracle.ToolSpec {
	return []oracle.ToolSpec{
		{
			Name:        ToolCheckAvailability,
			Description: "Check which appointment times are open for a service on a given day. Always call this before telling the customer anything about availability.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"service_name": map[string]any{
						"type":        "string",
						"description": "Name of the service the customer wants.",
					},
					"date": map[string]any{
						"type":        "string",
						"description": "Requested day in YYYY-MM-DD format.",
					},
				},
				"required": []string{"service_name", "date"},
			},
		},
		{
			Name:        ToolCreateAppointment,
			Description: "Book an appointment once the customer has confirmed the service, date, time, and their name. Never claim a booking succeeded without calling this.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"service_name": map[string]any{
						"type":        "string",
						"description": "Name of the service to book.",
					},
					"date": map[string]any{
						"type":        "string",
						"description": "Appointment day in YYYY-MM-DD format.",
					},
					"time": map[string]any{
						"type":        "string",
						"description": "Appointment start time, e.g. \"2:30 PM\" or \"14:30\".",
					},
					"customer_name": map[string]any{
						"type":        "string",
						"description": "Customer's full name.",
					},
					"customer_email": map[string]any{
						"type":        "string",
						"description": "Customer's email address, if they provided one.",
					},
				},
				"required": []string{"service_name", "date", "time", "customer_name"},
			},
		},
	}
}
