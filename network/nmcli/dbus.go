package nmcli

import (
	"context"
	"fmt"

	gonetworkmanager "github.com/Wifx/gonetworkmanager/v3"
	"github.com/godbus/dbus/v5"

	"github.com/shazow/nmctl/network"
)

// DBusSecrets asks NetworkManager for secrets over the system bus directly,
// without spawning dbus-send.
type DBusSecrets struct{}

// PSK implements SecretSource.
func (DBusSecrets) PSK(ctx context.Context, locator string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	path := dbus.ObjectPath(locator)
	if !path.IsValid() {
		return "", fmt.Errorf("invalid bus path %q: %w", locator, network.ErrNotFound)
	}

	conn, err := gonetworkmanager.NewConnection(path)
	if err != nil {
		return "", fmt.Errorf("failed to open connection %s: %w: %w", locator, network.ErrNotAvailable, err)
	}

	settings, err := conn.GetSecrets(wirelessSecrets)
	if err != nil {
		return "", fmt.Errorf("failed to get secrets: %w: %w", network.ErrOperationFailed, err)
	}

	if s, ok := settings[wirelessSecrets]; ok {
		if psk, ok := s[pskKey].(string); ok {
			return psk, nil
		}
	}
	return "", fmt.Errorf("no psk for %s: %w", locator, network.ErrNotFound)
}
