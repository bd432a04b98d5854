package prompt

import (
	"strings"
	"testing"
	"time"

	"github.com/ananta-systems/ai-inbox/internal/business"
)

var testDay = time.Date(2025, time.March, 14, 10, 0, 0, 0, time.UTC)

func TestBuildIsDeterministic(t *testing.T) {
	biz := business.Context{
		Services: map[string]business.ServiceInfo{
			"botox":  {Price: "$12/unit", Duration: "30 minutes"},
			"facial": {Price: "$150", Duration: "60 minutes"},
		},
		Config: map[string]string{"bot_personality": "Warm and professional."},
	}

	first := Build(biz, testDay)
	for i := 0; i < 5; i++ {
		if got := Build(biz, testDay); got != first {
			t.Fatal("expected identical output for identical inputs")
		}
	}
}

func TestBuildDefaults(t *testing.T) {
	out := Build(business.Context{}, testDay)

	if !strings.Contains(out, defaultPersona) {
		t.Error("expected default persona when config has none")
	}
	if !strings.Contains(out, defaultHandoff) {
		t.Error("expected default handoff phrase when config has none")
	}
	if !strings.Contains(out, "Friday, March 14, 2025") {
		t.Errorf("expected literal date in output, got:\n%s", out)
	}
	if strings.Contains(out, "Services offered") {
		t.Error("expected no services section when catalog is empty")
	}
}

func TestBuildUsesConfigOverrides(t *testing.T) {
	biz := business.Context{Config: map[string]string{
		"bot_personality":      "You are Luna, the spa concierge.",
		"handoff_code":         "HANDOFF-42",
		"booking_link":         "https://book.example.com",
		"contact_info":         "555-0100",
		"special_instructions": "Closed on Sundays.",
		"upsell_prompt":        "Mention the spring facial package.",
	}}

	out := Build(biz, testDay)

	for _, want := range []string{
		"You are Luna, the spa concierge.",
		`"HANDOFF-42"`,
		"https://book.example.com",
		"555-0100",
		"Closed on Sundays.",
		"Mention the spring facial package.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}
	if strings.Contains(out, defaultPersona) {
		t.Error("default persona should be replaced by the configured one")
	}
}

func TestServicesSortedAndFormatted(t *testing.T) {
	biz := business.Context{Services: map[string]business.ServiceInfo{
		"lip filler": {Price: "$600", Duration: "45 minutes"},
		"botox":      {Price: "$12/unit", Duration: "30 minutes"},
	}}

	out := Build(biz, testDay)

	botoxIdx := strings.Index(out, "- Botox: Price is $12/unit, Takes about 30 minutes")
	fillerIdx := strings.Index(out, "- Lip Filler: Price is $600, Takes about 45 minutes")
	if botoxIdx == -1 || fillerIdx == -1 {
		t.Fatalf("expected both formatted service lines, got:\n%s", out)
	}
	if botoxIdx > fillerIdx {
		t.Error("expected services sorted alphabetically")
	}
}
