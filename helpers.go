package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shazow/nmctl/network"
)

// formatDuration returns a human-readable string like "5 seconds".
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second*2:
		return fmt.Sprintf("%d milliseconds", d.Milliseconds())
	case d < time.Minute*2:
		return fmt.Sprintf("%0.f seconds", d.Seconds())
	default:
		return fmt.Sprintf("%0.f minutes", d.Minutes())
	}
}

// parseKind accepts the interface names users tend to type.
func parseKind(s string) (network.Kind, error) {
	switch strings.ToLower(s) {
	case "wifi", "wireless", "wlan":
		return network.KindWireless, nil
	case "ethernet", "wired", "eth":
		return network.KindWired, nil
	}
	return "", fmt.Errorf("unknown interface %q: want wifi or ethernet", s)
}

// orNone dereferences s, or returns "-" when absent.
func orNone(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
