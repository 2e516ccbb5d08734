package nmcli

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/shazow/nmctl/network"
)

const (
	nmBusName        = "org.freedesktop.NetworkManager"
	getSecretsMethod = "org.freedesktop.NetworkManager.Settings.Connection.GetSecrets"
	wirelessSecrets  = "802-11-wireless-security"
	pskKey           = "psk"
)

// SecretSource looks up the pre-shared key of a connection profile,
// addressed by the profile's opaque locator.
type SecretSource interface {
	PSK(ctx context.Context, locator string) (string, error)
}

// BusSecrets asks NetworkManager for secrets with dbus-send through a
// Transport and scans the printed reply.
type BusSecrets struct {
	Transport Transport
}

// PSK implements SecretSource.
func (s BusSecrets) PSK(ctx context.Context, locator string) (string, error) {
	if locator == "" {
		return "", fmt.Errorf("connection has no bus path: %w", network.ErrNotFound)
	}
	args := []string{
		"--system",
		"--print-reply",
		"--dest=" + nmBusName,
		locator,
		getSecretsMethod,
		"string:" + wirelessSecrets,
	}
	r := s.Transport.Execute(ctx, TargetSecretBus, args...)
	if !r.OK() {
		return "", commandError(args, r)
	}
	psk, ok := extractPSK(r.Output)
	if !ok {
		return "", fmt.Errorf("no psk in GetSecrets reply: %w", network.ErrNotFound)
	}
	return psk, nil
}

var quotedString = regexp.MustCompile(`string "((?:[^"\\]|\\.)*)"`)

// extractPSK scans a dbus-send reply for string values in order and returns
// the one following a "psk" key.
func extractPSK(reply string) (string, bool) {
	matches := quotedString.FindAllStringSubmatch(reply, -1)
	for i := 0; i+1 < len(matches); i++ {
		if matches[i][1] != pskKey {
			continue
		}
		v := matches[i+1][1]
		if unquoted, err := strconv.Unquote(`"` + v + `"`); err == nil {
			v = unquoted
		}
		return v, true
	}
	return "", false
}
