package business

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ananta-systems/ai-inbox/pkg/logging"
)

const (
	servicesRange = "Services!A1:C"
	configRange   = "Config!A1:B"
)

// SheetsLoader loads a business snapshot from a Google Sheet with two tabs:
// "Services" (Service, Price, Duration) and "Config" (Key, Value).
type SheetsLoader struct {
	svc    *sheets.Service
	logger *logging.Logger
}

// NewSheetsLoader builds a loader using a service-account credentials file.
func NewSheetsLoader(ctx context.Context, credentialsFile string, logger *logging.Logger) (*SheetsLoader, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, fmt.Errorf("business: sheets credentials file is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("business: create sheets service: %w", err)
	}
	return &SheetsLoader{svc: svc, logger: logger}, nil
}

// Load fetches both tabs and converts them into a Context.
func (l *SheetsLoader) Load(ctx context.Context, spreadsheetID string) (Context, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return Context{}, fmt.Errorf("business: spreadsheet id is required")
	}

	resp, err := l.svc.Spreadsheets.Values.
		BatchGet(spreadsheetID).
		Ranges(servicesRange, configRange).
		Context(ctx).
		Do()
	if err != nil {
		return Context{}, fmt.Errorf("business: fetch spreadsheet %s: %w", spreadsheetID, err)
	}

	snapshot := Context{
		Services: map[string]ServiceInfo{},
		Config:   map[string]string{},
	}
	for _, vr := range resp.ValueRanges {
		switch {
		case strings.HasPrefix(vr.Range, "Services"):
			snapshot.Services = parseServices(vr.Values)
		case strings.HasPrefix(vr.Range, "Config"):
			snapshot.Config = parseConfig(vr.Values)
		}
	}

	l.logger.Info("business snapshot loaded",
		"spreadsheet_id", spreadsheetID,
		"services", len(snapshot.Services),
		"config_keys", len(snapshot.Config),
	)
	return snapshot, nil
}

// parseServices converts raw sheet rows into the service map. The first row is
// treated as a header when it looks like one. Service names are lowercased so
// lookups are case-insensitive.
func parseServices(rows [][]interface{}) map[string]ServiceInfo {
	services := map[string]ServiceInfo{}
	for i, row := range rows {
		name := cellString(row, 0)
		if name == "" {
			continue
		}
		if i == 0 && strings.EqualFold(name, "service") {
			continue
		}
		services[strings.ToLower(name)] = ServiceInfo{
			Price:    cellString(row, 1),
			Duration: cellString(row, 2),
		}
	}
	return services
}

// parseConfig converts raw Key/Value rows into the config map.
func parseConfig(rows [][]interface{}) map[string]string {
	config := map[string]string{}
	for i, row := range rows {
		key := cellString(row, 0)
		if key == "" {
			continue
		}
		if i == 0 && strings.EqualFold(key, "key") {
			continue
		}
		config[key] = cellString(row, 1)
	}
	return config
}

func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
