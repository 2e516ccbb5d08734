package nmcli

import (
	"strconv"
	"strings"

	"github.com/shazow/nmctl/network"
)

// Field lists requested with -f, in the order nmcli prints them.
var (
	interfaceFields = []string{"type", "device", "con-uuid", "state"}
	profileFields   = []string{"name", "uuid", "type", "autoconnect", "dbus-path"}
	activeFields    = []string{"name", "uuid", "type", "device"}
	cellFields      = []string{"ssid", "signal", "security"}
	deviceFields    = []string{"device", "state"}
)

func fieldArg(fields []string) string {
	return strings.Join(fields, ",")
}

// Keys of the `con show <id>` key-value block.
const (
	keyType          = "connection.type"
	keyAutoConnect   = "connection.autoconnect"
	keySSID          = "802-11-wireless.ssid"
	keyWirelessMAC   = "802-11-wireless.mac-address"
	keyWiredMAC      = "802-3-ethernet.mac-address"
	keyIPv4Method    = "ipv4.method"
	keyIPv4Addresses = "ipv4.addresses"
	keyIPv4Gateway   = "ipv4.gateway"
	keyIPv4DNS       = "ipv4.dns"
	keyActiveAddress = "IP4.ADDRESS[1]"
	keyActiveGateway = "IP4.GATEWAY"
	keyHWAddress     = "GENERAL.HWADDR"
	keyPSK           = "802-11-wireless-security.psk"
	wiredName        = "Wired"
	unsetGateway     = "0.0.0.0"
	kindLoopback     = "loopback"
)

// mapInterface converts a device row. It returns false for rows that do not
// describe a usable device, including loopback.
func mapInterface(rec Record) (network.Interface, bool) {
	typ, ok := rec.Get("type")
	if !ok || typ == kindLoopback {
		return network.Interface{}, false
	}
	device, ok := rec.Get("device")
	if !ok {
		return network.Interface{}, false
	}
	state, _ := rec.Get("state")
	return network.Interface{
		Kind:         network.ParseKind(typ),
		Device:       device,
		State:        network.DeviceState(state),
		ConnectionID: rec.Ptr("con-uuid"),
	}, true
}

// mapProfile converts a connection row. Rows without an id are unusable.
func mapProfile(rec Record) (network.ConnectionProfile, bool) {
	id, ok := rec.Get("uuid")
	if !ok {
		return network.ConnectionProfile{}, false
	}
	name, _ := rec.Get("name")
	typ, _ := rec.Get("type")
	autoconnect, _ := rec.Get("autoconnect")
	locator, _ := rec.Get("dbus-path")
	return network.ConnectionProfile{
		ID:          id,
		Name:        name,
		Kind:        network.ParseKind(typ),
		AutoConnect: parseYes(autoconnect),
		Locator:     locator,
	}, true
}

// mapCell converts a scan row. Cells without an SSID cannot be matched or
// joined by name and are dropped.
func mapCell(rec Record) (network.WifiCell, bool) {
	ssid, ok := rec.Get("ssid")
	if !ok {
		return network.WifiCell{}, false
	}
	signal, _ := rec.Get("signal")
	n, err := strconv.Atoi(strings.TrimSpace(signal))
	if err != nil {
		n = 0
	}
	return network.WifiCell{
		SSID:     ssid,
		Signal:   n,
		Security: rec.Ptr("security"),
	}, true
}

// mapDetails converts a `con show <id>` block into ConnectionDetails.
func mapDetails(id string, rec Record) network.ConnectionDetails {
	typ, _ := rec.Get(keyType)
	wireless := strings.Contains(typ, "wireless")

	d := network.ConnectionDetails{
		ID:          id,
		Name:        wiredName,
		IsWireless:  wireless,
		AutoConnect: parseYes(rec[keyAutoConnect]),
	}
	if wireless {
		if ssid, ok := rec.Get(keySSID); ok {
			d.SSID = &ssid
			d.Name = ssid
		}
		d.HWAddress = rec[keyWirelessMAC]
	} else {
		d.HWAddress = rec[keyWiredMAC]
	}

	method, _ := rec.Get(keyIPv4Method)
	d.IPv4.Method = network.IPv4Method(method)
	d.IPv4.Address, d.IPv4.Gateway = splitAddressPair(rec[keyIPv4Addresses])
	if d.IPv4.Gateway == "" {
		d.IPv4.Gateway = normalizeGateway(rec[keyIPv4Gateway])
	}
	d.IPv4.DNS = parseDNS(rec[keyIPv4DNS])
	d.ActiveAddress, _ = splitAddressPair(rec[keyActiveAddress])
	return d
}

// splitAddressPair parses an "address, gateway" field. Both the bare form
// and the older "{ ip = a, gw = b }" form are accepted. A missing token
// leaves its value empty.
func splitAddressPair(s string) (address, gateway string) {
	s = strings.Trim(strings.TrimSpace(s), "{}")
	tokens := strings.Split(s, ",")
	values := make([]string, 0, 2)
	for _, tok := range tokens {
		if _, v, ok := strings.Cut(tok, "="); ok {
			tok = v
		}
		values = append(values, strings.TrimSpace(tok))
	}
	if len(values) > 0 {
		address = values[0]
	}
	if len(values) > 1 {
		gateway = normalizeGateway(values[1])
	}
	return address, gateway
}

func normalizeGateway(gw string) string {
	gw = strings.TrimSpace(gw)
	if gw == unsetGateway || gw == placeholder {
		return ""
	}
	return gw
}

// parseDNS splits a DNS list that may be comma and/or space separated.
func parseDNS(s string) []string {
	return strings.Fields(strings.ReplaceAll(s, ",", " "))
}

func parseYes(s string) bool {
	return strings.TrimSpace(s) == "yes"
}

// formatYes is the inverse of parseYes.
func formatYes(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
