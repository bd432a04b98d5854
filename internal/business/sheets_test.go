package business

import "testing"

func TestParseServicesSkipsHeaderAndLowercases(t *testing.T) {
	rows := [][]interface{}{
		{"Service", "Price", "Duration"},
		{"Botox", "$12/unit", "30 minutes"},
		{"", "$50", "15 minutes"},
		{"Facial ", " $150 ", " 60 minutes "},
	}

	services := parseServices(rows)

	if len(services) != 2 {
		t.Fatalf("expected 2 services, got %d", len(services))
	}
	botox, ok := services["botox"]
	if !ok {
		t.Fatal("expected botox entry keyed in lowercase")
	}
	if botox.Price != "$12/unit" || botox.Duration != "30 minutes" {
		t.Errorf("unexpected botox entry: %+v", botox)
	}
	facial := services["facial"]
	if facial.Price != "$150" || facial.Duration != "60 minutes" {
		t.Errorf("expected trimmed cells, got %+v", facial)
	}
}

func TestParseServicesWithoutHeaderRow(t *testing.T) {
	rows := [][]interface{}{
		{"Massage", "$90", "45 minutes"},
	}

	services := parseServices(rows)

	if _, ok := services["massage"]; !ok {
		t.Fatalf("expected massage entry, got %v", services)
	}
}

func TestParseConfig(t *testing.T) {
	rows := [][]interface{}{
		{"Key", "Value"},
		{"bot_personality", "friendly and concise"},
		{"booking_provider", "setmore"},
		{"", "orphaned"},
		{"short_row"},
	}

	config := parseConfig(rows)

	if config["bot_personality"] != "friendly and concise" {
		t.Errorf("unexpected personality: %q", config["bot_personality"])
	}
	if config["booking_provider"] != "setmore" {
		t.Errorf("unexpected provider: %q", config["booking_provider"])
	}
	if config["short_row"] != "" {
		t.Errorf("expected empty value for short row, got %q", config["short_row"])
	}
	if len(config) != 3 {
		t.Errorf("expected 3 keys, got %d: %v", len(config), config)
	}
}

func TestConfigValueFallback(t *testing.T) {
	ctx := Context{Config: map[string]string{
		"booking_link": "  ",
		"contact_info": "call us at 555-0100",
	}}

	if got := ctx.ConfigValue("booking_link", "none"); got != "none" {
		t.Errorf("expected blank value to fall back, got %q", got)
	}
	if got := ctx.ConfigValue("contact_info", "none"); got != "call us at 555-0100" {
		t.Errorf("unexpected contact info: %q", got)
	}
	if got := ctx.ConfigValue("missing", "none"); got != "none" {
		t.Errorf("expected fallback for missing key, got %q", got)
	}
}

func TestProviderDescriptor(t *testing.T) {
	ctx := Context{Config: map[string]string{
		"booking_provider": "square",
		"booking_api_key":  "sq-secret",
	}}

	desc := ctx.ProviderDescriptor()
	if desc.ProviderID != "square" || desc.Credential != "sq-secret" {
		t.Fatalf("unexpected descriptor: %+v", desc)
	}

	empty := Context{}.ProviderDescriptor()
	if empty.ProviderID != "" || empty.Credential != "" {
		t.Fatalf("expected empty descriptor, got %+v", empty)
	}
}
