package network

import "context"

// Manager defines the operations a host can perform on the machine's
// network connectivity.
//
// Implementations do not serialize concurrent callers. Hosts that allow
// concurrent requests must serialize the mutating operations themselves.
type Manager interface {
	// Status returns a fresh snapshot of every interface.
	Status(ctx context.Context) (Status, error)
	// ScanWifi lists visible cells, rescanning first if force is set.
	ScanWifi(ctx context.Context, force bool) ([]WifiCell, error)
	// ConfiguredConnections lists the saved connection profiles.
	ConfiguredConnections(ctx context.Context) ([]ConnectionProfile, error)
	// ConnectionDetails returns the configuration of a profile. It returns
	// ErrNotFound if no such profile exists.
	ConnectionDetails(ctx context.Context, id string, includeSecret bool) (*ConnectionDetails, error)

	// AddWifiConnection joins a network, creating a new profile, and
	// returns the new profile id.
	AddWifiConnection(ctx context.Context, ssid string, psk string) (string, error)
	// SetConnectionDetails applies details to a profile, creating a wireless
	// profile first when id is empty or unknown.
	SetConnectionDetails(ctx context.Context, iface Kind, details ConnectionDetails, id string) error
	// DisconnectInterface disconnects the device of the given kind.
	DisconnectInterface(ctx context.Context, iface Kind) error
	// ConnectInterface activates the first autoconnect profile of the given kind.
	ConnectInterface(ctx context.Context, iface Kind) error
	// SetWifiRadio enables or disables the wireless radio.
	SetWifiRadio(ctx context.Context, enabled bool) error
	// ResetWifi power cycles the wireless radio.
	ResetWifi(ctx context.Context) error
	// DeleteConnection removes a profile. Deleting an unknown id succeeds.
	DeleteConnection(ctx context.Context, id string) error
}
