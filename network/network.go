package network

import "strings"

// Kind is the medium of an interface or connection profile.
type Kind string

const (
	KindWired    Kind = "ethernet"
	KindWireless Kind = "wifi"
)

// ParseKind normalizes the type strings nmcli reports for devices
// ("wifi", "ethernet") and profiles ("802-11-wireless", "802-3-ethernet").
// Anything else is returned verbatim.
func ParseKind(s string) Kind {
	switch {
	case strings.Contains(s, "wireless"), s == "wifi":
		return KindWireless
	case strings.Contains(s, "ethernet"):
		return KindWired
	}
	return Kind(s)
}

// String returns a human readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindWired:
		return "Wired"
	case KindWireless:
		return "Wireless"
	}
	return string(k)
}

// DeviceState is the connection state of a device as reported by nmcli.
type DeviceState string

const (
	StateUnmanaged    DeviceState = "unmanaged"
	StateUnavailable  DeviceState = "unavailable"
	StateDisconnected DeviceState = "disconnected"
	StateConnecting   DeviceState = "connecting"
	StateConnected    DeviceState = "connected"
)

// Interface is a network device (wired or wireless adapter).
type Interface struct {
	Kind         Kind        `json:"type"`
	Device       string      `json:"device"`
	HWAddress    *string     `json:"mac_address,omitempty"`
	State        DeviceState `json:"state"`
	ConnectionID *string     `json:"connection_uuid,omitempty"`
}

// Enabled reports whether the device can be used at all.
func (i Interface) Enabled() bool {
	return i.State != StateUnavailable && i.State != StateUnmanaged
}

// Connected reports whether the device is up with a connection.
func (i Interface) Connected() bool {
	return i.State == StateConnected
}

// ConnectionProfile is a saved configuration known to the network tool.
type ConnectionProfile struct {
	ID          string `json:"uuid"`
	Name        string `json:"name"`
	Kind        Kind   `json:"type"`
	AutoConnect bool   `json:"autoconnect"`
	// Locator addresses the profile on the secret bus. It is opaque to callers.
	Locator string `json:"-"`
}

// IPv4Method selects how a connection obtains its address.
type IPv4Method string

const (
	IPv4Auto   IPv4Method = "auto"
	IPv4Manual IPv4Method = "manual"
)

// IPv4Config is the configured IPv4 part of a connection. Empty strings
// mean unset.
type IPv4Config struct {
	Method  IPv4Method `json:"method"`
	Address string     `json:"ip,omitempty"`
	Gateway string     `json:"gateway,omitempty"`
	DNS     []string   `json:"dns"`
}

// ConnectionDetails is the full configuration of one profile.
type ConnectionDetails struct {
	ID          string     `json:"uuid"`
	Name        string     `json:"name"`
	IsWireless  bool       `json:"isWireless"`
	SSID        *string    `json:"ssid,omitempty"`
	HWAddress   string     `json:"mac_address,omitempty"`
	AutoConnect bool       `json:"autoconnect"`
	IPv4        IPv4Config `json:"ipv4"`
	// ActiveAddress is the runtime address, if the connection is up.
	ActiveAddress string `json:"active_ip,omitempty"`
	// PSK is only populated when explicitly requested.
	PSK string `json:"psk,omitempty"`
}

// WifiCell is one access point observed by a scan, reduced to its SSID.
type WifiCell struct {
	SSID   string `json:"ssid"`
	Signal int    `json:"signal"` // 0-100
	// Security is nil for open networks.
	Security     *string `json:"security"`
	ConnectionID *string `json:"connection_uuid"`
}

// InterfaceStatus is the per-interface part of a Status snapshot.
type InterfaceStatus struct {
	ConnectionID *string `json:"connection_uuid"`
	Connected    bool    `json:"connected"`
	Enabled      bool    `json:"enabled"`
	HWAddress    *string `json:"mac_address"`
	SSID         *string `json:"ssid,omitempty"`
	IP           *string `json:"ip,omitempty"`
}

// Status is the aggregate connectivity view, keyed by interface kind.
type Status map[Kind]InterfaceStatus

// ActiveConnection is a connection profile currently bound to a device.
type ActiveConnection struct {
	ID     string `json:"uuid"`
	Name   string `json:"name"`
	Kind   Kind   `json:"type"`
	Device string `json:"device"`
}
