// Package square implements the Square Bookings adapter. Square identifies
// services by catalog variation IDs and requires a bookable team member, so
// both are resolved from the business's catalog before each call.
package square

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ananta-systems/ai-inbox/internal/booking"
	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

const defaultBaseURL = "https://connect.squareup.com"

// ProviderID is the identifier businesses use in their booking config.
const ProviderID = "square"

// Client talks to the Square connect API using the business's bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient builds a Square adapter.
func NewClient(logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		logger:     logger,
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// Name implements booking.Provider.
func (c *Client) Name() string { return ProviderID }

// CheckAvailability implements booking.Provider.
func (c *Client) CheckAvailability(ctx context.Context, credential string, req booking.AvailabilityRequest) (*booking.AvailabilityResult, error) {
	variationID, err := c.serviceVariationID(ctx, credential, req.ServiceName)
	if err != nil {
		return nil, err
	}
	teamMemberID, err := c.firstTeamMemberID(ctx, credential)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("square: invalid date %q: %w", req.Date, err)
	}

	payload := map[string]any{
		"query": map[string]any{
			"filter": map[string]any{
				"start_at_range": map[string]string{
					"start_at": day.Format(time.RFC3339),
					"end_at":   day.Add(24 * time.Hour).Format(time.RFC3339),
				},
				"segment_filters": []map[string]any{{
					"service_variation_id": variationID,
					"team_member_id_filter": map[string]any{
						"any": []string{teamMemberID},
					},
				}},
			},
		},
	}

	var out struct {
		Availabilities []struct {
			StartAt string `json:"start_at"`
		} `json:"availabilities"`
	}
	if err := c.postJSON(ctx, credential, "/v2/bookings/availability/search", payload, &out); err != nil {
		return nil, err
	}

	slots := make([]string, 0, len(out.Availabilities))
	for _, avail := range out.Availabilities {
		start, err := time.Parse(time.RFC3339, avail.StartAt)
		if err != nil {
			continue
		}
		slots = append(slots, start.Format("15:04:05"))
	}
	return &booking.AvailabilityResult{Provider: ProviderID, Slots: slots}, nil
}

// CreateAppointment implements booking.Provider.
func (c *Client) CreateAppointment(ctx context.Context, credential string, req booking.AppointmentRequest) (*booking.BookingResult, error) {
	variationID, err := c.serviceVariationID(ctx, credential, req.ServiceName)
	if err != nil {
		return nil, err
	}
	teamMemberID, err := c.firstTeamMemberID(ctx, credential)
	if err != nil {
		return nil, err
	}
	customerID, err := c.createCustomer(ctx, credential, req.CustomerName, req.CustomerEmail)
	if err != nil {
		return nil, err
	}

	start, err := parseStart(req.Date, req.Time)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"booking": map[string]any{
			"start_at":    start.Format(time.RFC3339),
			"customer_id": customerID,
			"appointment_segments": []map[string]any{{
				"service_variation_id":      variationID,
				"service_variation_version": 1,
				"team_member_id":            teamMemberID,
			}},
		},
	}

	var out struct {
		Booking struct {
			ID string `json:"id"`
		} `json:"booking"`
	}
	if err := c.postJSON(ctx, credential, "/v2/bookings", payload, &out); err != nil {
		return nil, err
	}
	if out.Booking.ID == "" {
		return nil, &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "booking was not created",
		}
	}
	return &booking.BookingResult{Provider: ProviderID, Confirmation: out.Booking.ID}, nil
}

// serviceVariationID finds the first catalog item whose name contains the
// requested service, case-insensitively, and returns its first variation.
func (c *Client) serviceVariationID(ctx context.Context, credential, serviceName string) (string, error) {
	var out struct {
		Objects []struct {
			Type     string `json:"type"`
			ItemData struct {
				Name       string `json:"name"`
				Variations []struct {
					ID string `json:"id"`
				} `json:"variations"`
			} `json:"item_data"`
		} `json:"objects"`
	}
	if err := c.getJSON(ctx, credential, "/v2/catalog/list?types=ITEM", &out); err != nil {
		return "", err
	}

	needle := strings.ToLower(serviceName)
	for _, obj := range out.Objects {
		if obj.Type != "ITEM" {
			continue
		}
		if strings.Contains(strings.ToLower(obj.ItemData.Name), needle) && len(obj.ItemData.Variations) > 0 {
			return obj.ItemData.Variations[0].ID, nil
		}
	}
	return "", &booking.ProviderError{
		Kind:     booking.ErrorUpstreamRejected,
		Provider: ProviderID,
		Message:  fmt.Sprintf("no catalog item matching %q", serviceName),
	}
}

func (c *Client) firstTeamMemberID(ctx context.Context, credential string) (string, error) {
	var out struct {
		TeamMemberBookingProfiles []struct {
			TeamMemberID string `json:"team_member_id"`
		} `json:"team_member_booking_profiles"`
	}
	if err := c.getJSON(ctx, credential, "/v2/bookings/team-member-booking-profiles", &out); err != nil {
		return "", err
	}
	if len(out.TeamMemberBookingProfiles) == 0 {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "no bookable team member found",
		}
	}
	return out.TeamMemberBookingProfiles[0].TeamMemberID, nil
}

func (c *Client) createCustomer(ctx context.Context, credential, name, email string) (string, error) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "customer name is required",
		}
	}
	familyName := ""
	if len(parts) > 1 {
		familyName = parts[len(parts)-1]
	}

	payload := map[string]string{
		"given_name":  parts[0],
		"family_name": familyName,
	}
	if email != "" {
		payload["email_address"] = email
	}

	var out struct {
		Customer struct {
			ID string `json:"id"`
		} `json:"customer"`
	}
	if err := c.postJSON(ctx, credential, "/v2/customers", payload, &out); err != nil {
		return "", err
	}
	if out.Customer.ID == "" {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "could not create customer",
		}
	}
	return out.Customer.ID, nil
}

func (c *Client) getJSON(ctx context.Context, credential, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("square: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, credential, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("square: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("square: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("square: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  fmt.Sprintf("%s %s returned %d", req.Method, req.URL.Path, resp.StatusCode),
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("square: decode response: %w", err)
	}
	return nil
}

func parseStart(date, clock string) (time.Time, error) {
	combined := fmt.Sprintf("%s %s", date, strings.ToUpper(strings.TrimSpace(clock)))
	if t, err := time.Parse("2006-01-02 3:04 PM", combined); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02 15:04", combined)
	if err != nil {
		return time.Time{}, fmt.Errorf("square: invalid start time %q %q", date, clock)
	}
	return t.UTC(), nil
}
