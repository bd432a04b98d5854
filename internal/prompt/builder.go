// Package prompt assembles the system instruction handed to the decision model
// at the start of every turn. Building is a pure function of the business
// snapshot and the current date, so the same inputs always yield the same
// instruction.
package prompt

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/ananta-systems/ai-inbox/internal/business"
)

const (
	defaultPersona = "You are a helpful AI assistant for a business."
	defaultHandoff = "I'll let a human representative handle that."
)

// Build renders the system instruction for one turn.
func Build(biz business.Context, today time.Time) string {
	var b strings.Builder

	b.WriteString(biz.ConfigValue("bot_personality", defaultPersona))
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Today's date is %s.\n\n", today.Format("Monday, January 2, 2006"))

	b.WriteString("Rules you must follow:\n")
	b.WriteString("- Never state availability or claim an appointment is booked without first calling the matching tool and reading its result.\n")
	b.WriteString("- If the customer has not given you every detail a tool needs, ask a clarifying question instead of guessing.\n")
	fmt.Fprintf(&b, "- If the customer asks for something you cannot handle, reply exactly: %q\n", biz.ConfigValue("handoff_code", defaultHandoff))

	if services := formatServices(biz.Services); services != "" {
		b.WriteString("\nServices offered:\n")
		b.WriteString(services)
	}

	if link := biz.ConfigValue("booking_link", ""); link != "" {
		fmt.Fprintf(&b, "\nCustomers can also book online at %s.\n", link)
	}
	if contact := biz.ConfigValue("contact_info", ""); contact != "" {
		fmt.Fprintf(&b, "\nContact details for the business: %s\n", contact)
	}
	if instructions := biz.ConfigValue("special_instructions", ""); instructions != "" {
		fmt.Fprintf(&b, "\nSpecial instructions: %s\n", instructions)
	}
	if upsell := biz.ConfigValue("upsell_prompt", ""); upsell != "" {
		fmt.Fprintf(&b, "\nWhen it fits the conversation naturally: %s\n", upsell)
	}

	return b.String()
}

// formatServices renders the service catalog as a sorted bullet list.
func formatServices(services map[string]business.ServiceInfo) string {
	if len(services) == 0 {
		return ""
	}
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		info := services[name]
		fmt.Fprintf(&b, "- %s: Price is %s, Takes about %s\n", titleCase(name), info.Price, info.Duration)
	}
	return b.String()
}

// titleCase uppercases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
