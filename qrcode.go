package main

import (
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// EscapeWifiString handles the special character escaping for SSID and Password.
func EscapeWifiString(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`;`, `\;`,
		`,`, `\,`,
		`:`, `\:`,
		`"`, `\"`,
	)
	return r.Replace(s)
}

// wifiURI builds the WIFI: string understood by phone cameras. Profiles only
// expose a PSK, so secured networks are announced as WPA.
func wifiURI(ssid, psk string, secured bool, hidden bool) string {
	var b strings.Builder
	b.WriteString("WIFI:S:")
	b.WriteString(EscapeWifiString(ssid))
	b.WriteString(";")

	if secured {
		b.WriteString("T:WPA;P:")
		b.WriteString(EscapeWifiString(psk))
		b.WriteString(";")
	} else {
		b.WriteString("T:nopass;")
	}
	if hidden {
		b.WriteString("H:true;")
	}
	b.WriteString(";")
	return b.String()
}

// GenerateWifiQRCode returns a terminal-friendly QR code that joins the network.
func GenerateWifiQRCode(ssid, psk string, secured bool, hidden bool) (string, error) {
	q, err := qrcode.New(wifiURI(ssid, psk, secured, hidden), qrcode.Medium)
	if err != nil {
		return "", err
	}
	return q.ToSmallString(false), nil
}
