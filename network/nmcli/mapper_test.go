package nmcli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/nmctl/network"
)

func TestMapInterface(t *testing.T) {
	iface, ok := mapInterface(MapRow(interfaceFields, []string{"wifi", "wlan0", "--", "disconnected"}))
	require.True(t, ok)
	assert.Equal(t, network.KindWireless, iface.Kind)
	assert.Equal(t, "wlan0", iface.Device)
	assert.Nil(t, iface.ConnectionID)
	assert.False(t, iface.Connected())

	_, ok = mapInterface(MapRow(interfaceFields, []string{"loopback", "lo", "--", "unmanaged"}))
	assert.False(t, ok, "loopback must be skipped")

	_, ok = mapInterface(MapRow(interfaceFields, []string{"ethernet"}))
	assert.False(t, ok, "row without device must be skipped")
}

func TestMapProfile(t *testing.T) {
	row := []string{"Home", "3b1c0e2a-7f5d-4c39-9a3e-1d0c2b4a5e6f", "802-11-wireless", "yes", "/org/freedesktop/NetworkManager/Settings/3"}
	p, ok := mapProfile(MapRow(profileFields, row))
	require.True(t, ok)
	assert.Equal(t, network.ConnectionProfile{
		ID:          "3b1c0e2a-7f5d-4c39-9a3e-1d0c2b4a5e6f",
		Name:        "Home",
		Kind:        network.KindWireless,
		AutoConnect: true,
		Locator:     "/org/freedesktop/NetworkManager/Settings/3",
	}, p)

	_, ok = mapProfile(MapRow(profileFields, []string{"Broken", "--"}))
	assert.False(t, ok)
}

func TestMapCell(t *testing.T) {
	c, ok := mapCell(MapRow(cellFields, []string{"Open Cafe", "45", "--"}))
	require.True(t, ok)
	assert.Equal(t, "Open Cafe", c.SSID)
	assert.Equal(t, 45, c.Signal)
	assert.Nil(t, c.Security)

	c, ok = mapCell(MapRow(cellFields, []string{"Weird", "strong", "WPA2"}))
	require.True(t, ok)
	assert.Equal(t, 0, c.Signal)
	require.NotNil(t, c.Security)
	assert.Equal(t, "WPA2", *c.Security)

	_, ok = mapCell(MapRow(cellFields, []string{"--", "80", "WPA2"}))
	assert.False(t, ok, "hidden cells are dropped")
}

func TestMapDetails(t *testing.T) {
	raw := `connection.id:Home
connection.uuid:3b1c0e2a-7f5d-4c39-9a3e-1d0c2b4a5e6f
connection.type:802-11-wireless
connection.autoconnect:yes
802-11-wireless.ssid:Home
802-11-wireless.mac-address:DC:A6:32:AB:CD:EF
ipv4.method:manual
ipv4.addresses:{ ip = 10.0.0.5/24, gw = 10.0.0.1 }
ipv4.dns:1.1.1.1, 8.8.8.8
IP4.ADDRESS[1]:{ ip = 10.0.0.5/24, gw = 10.0.0.1 }
`
	d := mapDetails("3b1c0e2a-7f5d-4c39-9a3e-1d0c2b4a5e6f", MapKeyValue(ParseKeyValue(raw)))
	assert.True(t, d.IsWireless)
	assert.Equal(t, "Home", d.Name)
	require.NotNil(t, d.SSID)
	assert.Equal(t, "Home", *d.SSID)
	assert.Equal(t, "DC:A6:32:AB:CD:EF", d.HWAddress)
	assert.True(t, d.AutoConnect)
	assert.Equal(t, network.IPv4Config{
		Method:  network.IPv4Manual,
		Address: "10.0.0.5/24",
		Gateway: "10.0.0.1",
		DNS:     []string{"1.1.1.1", "8.8.8.8"},
	}, d.IPv4)
	assert.Equal(t, "10.0.0.5/24", d.ActiveAddress)
	assert.Empty(t, d.PSK)
}

func TestMapDetailsEscapedValues(t *testing.T) {
	raw := `connection.id:Cafe\:Guest
connection.uuid:3b1c0e2a-7f5d-4c39-9a3e-1d0c2b4a5e6f
connection.type:802-11-wireless
802-11-wireless.ssid:Cafe\:Guest
802-11-wireless.mac-address:DC\:A6\:32\:AB\:CD\:EF
ipv4.method:auto
`
	d := mapDetails("3b1c0e2a-7f5d-4c39-9a3e-1d0c2b4a5e6f", MapKeyValue(ParseKeyValue(raw)))
	assert.Equal(t, "Cafe:Guest", d.Name)
	require.NotNil(t, d.SSID)
	assert.Equal(t, "Cafe:Guest", *d.SSID)
	assert.Equal(t, "DC:A6:32:AB:CD:EF", d.HWAddress)
}

func TestMapDetailsWired(t *testing.T) {
	raw := `connection.id:Wired connection 1
connection.type:802-3-ethernet
connection.autoconnect:no
802-3-ethernet.mac-address:--
ipv4.method:auto
ipv4.addresses:
ipv4.gateway:--
ipv4.dns:
`
	d := mapDetails("abc", MapKeyValue(ParseKeyValue(raw)))
	assert.False(t, d.IsWireless)
	assert.Equal(t, wiredName, d.Name)
	assert.Nil(t, d.SSID)
	assert.Empty(t, d.HWAddress)
	assert.Equal(t, network.IPv4Auto, d.IPv4.Method)
	assert.Empty(t, d.IPv4.Address)
	assert.Empty(t, d.IPv4.Gateway)
	assert.Empty(t, d.IPv4.DNS)
	assert.Empty(t, d.ActiveAddress)
}

func TestSplitAddressPair(t *testing.T) {
	testCases := []struct {
		in      string
		address string
		gateway string
	}{
		{"{ ip = 192.168.0.2/8, gw = 192.168.0.1 }", "192.168.0.2/8", "192.168.0.1"},
		{"10.0.0.5/24, 10.0.0.1", "10.0.0.5/24", "10.0.0.1"},
		{"{ ip = 10.0.0.5/24, gw = 0.0.0.0 }", "10.0.0.5/24", ""},
		{"10.0.0.5/24", "10.0.0.5/24", ""},
		{"", "", ""},
	}
	for _, tc := range testCases {
		address, gateway := splitAddressPair(tc.in)
		if address != tc.address || gateway != tc.gateway {
			t.Errorf("splitAddressPair(%q) = (%q, %q), want (%q, %q)", tc.in, address, gateway, tc.address, tc.gateway)
		}
	}
}

func TestFormatAddressPair(t *testing.T) {
	assert.Equal(t, "10.0.0.5/24 10.0.0.1", formatAddressPair("10.0.0.5/24", "10.0.0.1"))
	assert.Equal(t, "10.0.0.5/24 0.0.0.0", formatAddressPair("10.0.0.5/24", ""))
	assert.Equal(t, "", formatAddressPair("", "10.0.0.1"))
}

func TestParseDNS(t *testing.T) {
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, parseDNS("1.1.1.1,8.8.8.8"))
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, parseDNS("1.1.1.1 8.8.8.8"))
	assert.Empty(t, parseDNS(""))
}
