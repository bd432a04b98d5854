// Package setmore implements the Setmore Appointments adapter. The vendor's
// flow is multi-step: exchange the business's refresh token for an access
// token, resolve the service and staff keys, then query slots or create the
// appointment.
package setmore

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

const defaultBaseURL = "https://developer.setmore.com/api/v1"

// ProviderID is the identifier businesses use in their booking config.
const ProviderID = "setmore"

// Client talks to the Setmore booking API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
}

// NewClient builds a Setmore adapter.
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
	token, err := c.accessToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	service, err := c.serviceDetails(ctx, token, req.ServiceName)
	if err != nil {
		return nil, err
	}
	staffKey, err := c.firstStaffKey(ctx, token)
	if err != nil {
		return nil, err
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, fmt.Errorf("setmore: invalid date %q: %w", req.Date, err)
	}

	var out struct {
		Data []string `json:"data"`
	}
	payload := map[string]string{
		"staff_key":     staffKey,
		"service_key":   service.Key,
		"selected_date": day.Format("02/01/2006"),
	}
	if err := c.postJSON(ctx, token, "/bookingapi/slots", payload, &out); err != nil {
		return nil, err
	}

	return &booking.AvailabilityResult{Provider: ProviderID, Slots: out.Data}, nil
}

// CreateAppointment implements booking.Provider.
func (c *Client) CreateAppointment(ctx context.Context, credential string, req booking.AppointmentRequest) (*booking.BookingResult, error) {
	token, err := c.accessToken(ctx, credential)
	if err != nil {
		return nil, err
	}

	service, err := c.serviceDetails(ctx, token, req.ServiceName)
	if err != nil {
		return nil, err
	}
	staffKey, err := c.firstStaffKey(ctx, token)
	if err != nil {
		return nil, err
	}
	customerKey, err := c.createCustomer(ctx, token, req.CustomerName)
	if err != nil {
		return nil, err
	}

	start, err := parseStart(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	end := start.Add(time.Duration(service.Duration) * time.Minute)

	payload := map[string]string{
		"staff_key":    staffKey,
		"service_key":  service.Key,
		"customer_key": customerKey,
		"start_time":   start.Format("2006-01-02T15:04"),
		"end_time":     end.Format("2006-01-02T15:04"),
		"comment":      "Booked via AI Inbox",
	}
	if err := c.postJSON(ctx, token, "/bookingapi/appointment/create", payload, nil); err != nil {
		return nil, err
	}

	return &booking.BookingResult{
		Provider:     ProviderID,
		Confirmation: fmt.Sprintf("Booking confirmed for %s at %s.", req.ServiceName, req.Time),
	}, nil
}

type serviceDetails struct {
	Key      string
	Duration int
}

// accessToken exchanges the business's refresh token for a short-lived access
// token.
func (c *Client) accessToken(ctx context.Context, refreshToken string) (string, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "missing booking credential",
		}
	}

	var out struct {
		Data struct {
			Token struct {
				AccessToken string `json:"access_token"`
			} `json:"token"`
		} `json:"data"`
	}
	url := fmt.Sprintf("%s/o/oauth2/token?refreshToken=%s", c.baseURL, refreshToken)
	if err := c.getJSON(ctx, "", url, &out); err != nil {
		return "", err
	}
	if out.Data.Token.AccessToken == "" {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "authentication failed",
		}
	}
	return out.Data.Token.AccessToken, nil
}

// serviceDetails finds the first service whose name contains the requested
// name, case-insensitively.
func (c *Client) serviceDetails(ctx context.Context, token, serviceName string) (*serviceDetails, error) {
	var out struct {
		Data struct {
			Services []struct {
				Key         string `json:"key"`
				ServiceName string `json:"service_name"`
				Duration    int    `json:"duration"`
			} `json:"services"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, token, c.baseURL+"/bookingapi/services", &out); err != nil {
		return nil, err
	}

	needle := strings.ToLower(serviceName)
	for _, svc := range out.Data.Services {
		if strings.Contains(strings.ToLower(svc.ServiceName), needle) {
			duration := svc.Duration
			if duration <= 0 {
				duration = 30
			}
			return &serviceDetails{Key: svc.Key, Duration: duration}, nil
		}
	}
	return nil, &booking.ProviderError{
		Kind:     booking.ErrorUpstreamRejected,
		Provider: ProviderID,
		Message:  fmt.Sprintf("no service matching %q", serviceName),
	}
}

func (c *Client) firstStaffKey(ctx context.Context, token string) (string, error) {
	var out struct {
		Data struct {
			Staffs []struct {
				Key string `json:"key"`
			} `json:"staffs"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, token, c.baseURL+"/bookingapi/staffs", &out); err != nil {
		return "", err
	}
	if len(out.Data.Staffs) == 0 {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "no staff member found",
		}
	}
	return out.Data.Staffs[0].Key, nil
}

func (c *Client) createCustomer(ctx context.Context, token, customerName string) (string, error) {
	parts := strings.Fields(customerName)
	if len(parts) == 0 {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "customer name is required",
		}
	}
	lastName := ""
	if len(parts) > 1 {
		lastName = parts[len(parts)-1]
	}

	var out struct {
		Data struct {
			Customer struct {
				Key string `json:"key"`
			} `json:"customer"`
		} `json:"data"`
	}
	payload := map[string]string{"first_name": parts[0], "last_name": lastName}
	if err := c.postJSON(ctx, token, "/bookingapi/customer/create", payload, &out); err != nil {
		return "", err
	}
	if out.Data.Customer.Key == "" {
		return "", &booking.ProviderError{
			Kind:     booking.ErrorUpstreamRejected,
			Provider: ProviderID,
			Message:  "could not create customer profile",
		}
	}
	return out.Data.Customer.Key, nil
}

func (c *Client) getJSON(ctx context.Context, token, url string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("setmore: build request: %w", err)
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	return c.do(httpReq, out)
}

func (c *Client) postJSON(ctx context.Context, token, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("setmore: marshal payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("setmore: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("setmore: %s %s: %w", req.Method, req.URL.Path, err)
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
		return fmt.Errorf("setmore: decode response: %w", err)
	}
	return nil
}

// parseStart accepts both 12-hour ("2:30 PM") and 24-hour ("14:30") times.
func parseStart(date, clock string) (time.Time, error) {
	combined := fmt.Sprintf("%s %s", date, strings.ToUpper(strings.TrimSpace(clock)))
	if t, err := time.Parse("2006-01-02 3:04 PM", combined); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04", combined)
	if err != nil {
		return time.Time{}, fmt.Errorf("setmore: invalid start time %q %q", date, clock)
	}
	return t, nil
}
