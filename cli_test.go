package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shazow/nmctl/internal/config"
	nmlog "github.com/shazow/nmctl/internal/log"
	"github.com/shazow/nmctl/network"
	"github.com/shazow/nmctl/network/nmcli"
	"github.com/shazow/nmctl/network/nmcli/fake"
)

func newTestManager(t *testing.T) (*nmcli.Client, *fake.NMCLI) {
	t.Helper()
	f := fake.New()
	f.ActionSleep = 0
	cfg := config.Default()
	cfg.ResetDelay = 1
	c, err := nmcli.New(context.Background(), f, clientOptions(cfg, slog.New(nmlog.NewHandler(nil, 0))))
	require.NoError(t, err)
	return c, f
}

func TestRunStatus(t *testing.T) {
	m, _ := newTestManager(t)
	var buf bytes.Buffer

	require.NoError(t, runStatus(context.Background(), &buf, false, m))
	output := buf.String()
	assert.Contains(t, output, "Wired")
	assert.Contains(t, output, "IP: 192.168.1.23/24")
	assert.Contains(t, output, "MAC: DC:A6:32:AB:CD:EF")

	buf.Reset()
	require.NoError(t, runStatus(context.Background(), &buf, true, m))
	var status map[string]map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &status))
	assert.Equal(t, true, status["ethernet"]["connected"])
	assert.Equal(t, false, status["wifi"]["connected"])
}

func TestRunScan(t *testing.T) {
	m, f := newTestManager(t)
	var buf bytes.Buffer

	require.NoError(t, runScan(context.Background(), &buf, true, false, m))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "Password is password\t"), "known networks sort first, got %q", lines[0])
	assert.Equal(t, 1, strings.Count(buf.String(), "Multi-AP Network"))
	assert.Equal(t, 1, f.CallCount("dev wifi rescan"))

	buf.Reset()
	require.NoError(t, runScan(context.Background(), &buf, false, true, m))
	var cells []network.WifiCell
	require.NoError(t, json.Unmarshal(buf.Bytes(), &cells))
	assert.Equal(t, "Password is password", cells[0].SSID)
	assert.Equal(t, "TacoBoutAGoodSignal", cells[1].SSID)
}

func TestRunScanRadioOff(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, m.SetWifiRadio(ctx, false))

	err := runScan(ctx, &bytes.Buffer{}, false, false, m)
	assert.ErrorIs(t, err, network.ErrWirelessDisabled)
}

func TestRunConnections(t *testing.T) {
	m, f := newTestManager(t)
	var buf bytes.Buffer

	require.NoError(t, runConnections(context.Background(), &buf, false, m))
	for _, p := range f.Profiles {
		assert.Contains(t, buf.String(), p.ID)
	}

	buf.Reset()
	require.NoError(t, runConnections(context.Background(), &buf, true, m))
	assert.NotContains(t, buf.String(), "/org/freedesktop", "bus paths are internal")
}

func TestRunShow(t *testing.T) {
	m, f := newTestManager(t)
	ctx := context.Background()
	id := f.Profile("Password is password").ID
	var buf bytes.Buffer

	require.NoError(t, runShow(ctx, &buf, id, false, false, false, m))
	assert.Contains(t, buf.String(), "SSID: Password is password")
	assert.NotContains(t, buf.String(), "Passphrase")

	buf.Reset()
	require.NoError(t, runShow(ctx, &buf, id, true, false, false, m))
	assert.Contains(t, buf.String(), "Passphrase: password")

	buf.Reset()
	require.NoError(t, runShow(ctx, &buf, id, false, false, true, m))
	var details network.ConnectionDetails
	require.NoError(t, json.Unmarshal(buf.Bytes(), &details))
	assert.Empty(t, details.PSK)
	assert.True(t, details.IsWireless)

	buf.Reset()
	require.NoError(t, runShow(ctx, &buf, id, false, true, false, m))
	assert.NotEmpty(t, buf.String())

	err := runShow(ctx, &buf, f.Profile("Wired connection 1").ID, false, true, false, m)
	assert.ErrorIs(t, err, network.ErrNotSupported)

	err = runShow(ctx, &buf, "00000000-0000-0000-0000-000000000000", false, false, false, m)
	assert.ErrorContains(t, err, "connection not found")
}

func TestRunJoinAndDelete(t *testing.T) {
	m, f := newTestManager(t)
	ctx := context.Background()
	var buf bytes.Buffer

	require.NoError(t, runJoin(ctx, &buf, "Unencrypted_Honeypot", "", m))
	p := f.Profile("Unencrypted_Honeypot")
	require.NotNil(t, p)
	assert.Contains(t, buf.String(), p.ID)

	require.NoError(t, runDelete(ctx, &buf, p.ID, m))
	require.NoError(t, runDelete(ctx, &buf, p.ID, m))
	assert.Nil(t, f.Profile("Unencrypted_Honeypot"))
}

func TestRunConfigure(t *testing.T) {
	m, f := newTestManager(t)
	ctx := context.Background()
	id := f.Profile("Wired connection 1").ID

	err := runConfigure(ctx, &bytes.Buffer{}, configureOptions{
		Kind:    network.KindWired,
		ID:      id,
		Method:  "manual",
		Address: "10.0.0.5/24",
		Gateway: "10.0.0.1",
		DNS:     "1.1.1.1,8.8.8.8",
	}, m)
	require.NoError(t, err)

	p := f.Profile("Wired connection 1")
	assert.Equal(t, "manual", p.IPv4Method)
	assert.Equal(t, "10.0.0.5/24", p.IPv4Address)
	assert.Equal(t, "10.0.0.1", p.IPv4Gateway)
	assert.Equal(t, []string{"1.1.1.1", "8.8.8.8"}, p.DNS)
}

func TestConfigureOptionsValidation(t *testing.T) {
	testCases := []struct {
		name string
		opts configureOptions
	}{
		{"manual without ip", configureOptions{Kind: network.KindWired, ID: "x", Method: "manual"}},
		{"bad method", configureOptions{Kind: network.KindWired, ID: "x", Method: "dhcp"}},
		{"new wifi without ssid", configureOptions{Kind: network.KindWireless}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.opts.details()
			assert.Error(t, err)
		})
	}
}

func TestRunInterfaceCommands(t *testing.T) {
	m, f := newTestManager(t)
	ctx := context.Background()
	var buf bytes.Buffer

	require.NoError(t, runDisconnect(ctx, &buf, network.KindWired, m))
	assert.Empty(t, f.Device("eth0").ConnectionID)
	require.NoError(t, runConnect(ctx, &buf, network.KindWired, m))
	assert.NotEmpty(t, f.Device("eth0").ConnectionID)

	require.NoError(t, runRadio(ctx, &buf, "off", m))
	assert.False(t, f.RadioEnabled)
	assert.Error(t, runRadio(ctx, &buf, "maybe", m))
	require.NoError(t, runReset(ctx, &buf, m))
	assert.True(t, f.RadioEnabled)
	assert.Contains(t, buf.String(), "Wi-Fi radio reset in")
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"wifi", "Wireless", "wlan"} {
		kind, err := parseKind(s)
		require.NoError(t, err)
		assert.Equal(t, network.KindWireless, kind)
	}
	kind, err := parseKind("wired")
	require.NoError(t, err)
	assert.Equal(t, network.KindWired, kind)

	_, err = parseKind("bluetooth")
	assert.Error(t, err)
}

func TestNewCommands(t *testing.T) {
	m, _ := newTestManager(t)
	var buf bytes.Buffer
	cmds := newCommands(&buf, func(context.Context) (network.Manager, error) { return m, nil })

	names := map[string]bool{}
	for _, c := range cmds {
		names[c.Name] = true
	}
	for _, want := range []string{"status", "scan", "connections", "show", "join", "configure", "connect", "disconnect", "radio", "reset", "delete"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestRunScanWatch(t *testing.T) {
	m, f := newTestManager(t)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var buf bytes.Buffer
	require.NoError(t, runScanWatch(ctx, &buf, 10*time.Millisecond, false, false, m))
	assert.GreaterOrEqual(t, f.CallCount("-t -f ssid,signal,security dev wifi list"), 2)
}
