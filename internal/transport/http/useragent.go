package http

import (
	"fmt"
	"strings"

	"github.com/mssola/user_agent"
)

// summarizeUserAgent reduces a User-Agent header to "<browser> <version>\n<os>".
// Agents the parser does not understand are kept as they are.
func summarizeUserAgent(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	ua := user_agent.New(raw)
	name, version := ua.Browser()
	os := ua.OS()
	if ua.Bot() || name == "" || os == "" {
		return &raw
	}

	summary := strings.TrimSpace(fmt.Sprintf("%s %s", name, version)) + "\n" + os
	return &summary
}
