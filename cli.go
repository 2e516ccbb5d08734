package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/shazow/nmctl/internal/theme"
	"github.com/shazow/nmctl/network"
)

func runStatus(ctx context.Context, w io.Writer, jsonOut bool, m network.Manager) error {
	status, err := m.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	if jsonOut {
		return writeJSON(w, status)
	}

	t := theme.CurrentTheme
	for _, kind := range []network.Kind{network.KindWired, network.KindWireless} {
		st, ok := status[kind]
		if !ok {
			fmt.Fprintf(w, "%s\t%s\n", t.Title(kind.String()), t.Faint("no device"))
			continue
		}
		state := t.Faint("disconnected")
		switch {
		case !st.Enabled:
			state = t.Bad("disabled")
		case st.Connected:
			state = t.Good("connected")
		}
		fmt.Fprintf(w, "%s\t%s\n", t.Title(kind.String()), state)
		fmt.Fprintf(w, "  MAC: %s\n", orNone(st.HWAddress))
		if kind == network.KindWireless {
			fmt.Fprintf(w, "  SSID: %s\n", orNone(st.SSID))
		}
		fmt.Fprintf(w, "  IP: %s\n", orNone(st.IP))
		fmt.Fprintf(w, "  Connection: %s\n", orNone(st.ConnectionID))
	}
	return nil
}

// wirelessEnabled returns network.ErrWirelessDisabled when the radio is off.
func wirelessEnabled(ctx context.Context, m network.Manager) error {
	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	st, ok := status[network.KindWireless]
	if !ok {
		return fmt.Errorf("no wireless interface: %w", network.ErrNotFound)
	}
	if !st.Enabled {
		return network.ErrWirelessDisabled
	}
	return nil
}

func formatCell(c network.WifiCell) string {
	t := theme.CurrentTheme
	parts := []string{t.Signal(c.Signal)}
	if c.Security != nil {
		parts = append(parts, *c.Security)
	} else {
		parts = append(parts, "open")
	}
	if c.ConnectionID != nil {
		parts = append(parts, t.Good("known"))
	}
	return strings.Join(parts, ", ")
}

func runScan(ctx context.Context, w io.Writer, force bool, jsonOut bool, m network.Manager) error {
	if err := wirelessEnabled(ctx, m); err != nil {
		return fmt.Errorf("cannot scan: %w", err)
	}
	cells, err := m.ScanWifi(ctx, force)
	if err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}
	network.SortCells(cells)
	if jsonOut {
		if cells == nil {
			cells = []network.WifiCell{}
		}
		return writeJSON(w, cells)
	}
	for _, c := range cells {
		fmt.Fprintf(w, "%s\t%s\n", c.SSID, formatCell(c))
	}
	return nil
}

// runScanWatch repeats runScan every interval until ctx ends.
func runScanWatch(ctx context.Context, w io.Writer, interval time.Duration, force bool, jsonOut bool, m network.Manager) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := runScan(ctx, w, force, jsonOut, m); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if !jsonOut {
			fmt.Fprintln(w)
		}
	}
}

func runConnections(ctx context.Context, w io.Writer, jsonOut bool, m network.Manager) error {
	profiles, err := m.ConfiguredConnections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list connections: %w", err)
	}
	if jsonOut {
		if profiles == nil {
			profiles = []network.ConnectionProfile{}
		}
		return writeJSON(w, profiles)
	}
	t := theme.CurrentTheme
	for _, p := range profiles {
		auto := ""
		if p.AutoConnect {
			auto = ", " + t.Good("autoconnect")
		}
		fmt.Fprintf(w, "%s\t%s\t%s%s\n", p.ID, p.Name, p.Kind, auto)
	}
	return nil
}

func runShow(ctx context.Context, w io.Writer, id string, secret bool, qr bool, jsonOut bool, m network.Manager) error {
	details, err := m.ConnectionDetails(ctx, id, secret || qr)
	if errors.Is(err, network.ErrNotFound) {
		return fmt.Errorf("connection not found: %s", id)
	}
	if err != nil {
		return fmt.Errorf("failed to read connection: %w", err)
	}
	if qr {
		if !details.IsWireless || details.SSID == nil {
			return fmt.Errorf("%s is not a wifi connection: %w", id, network.ErrNotSupported)
		}
		code, err := GenerateWifiQRCode(*details.SSID, details.PSK, details.PSK != "", false)
		if err != nil {
			return fmt.Errorf("failed to generate qr code: %w", err)
		}
		fmt.Fprint(w, code)
		return nil
	}
	if !secret {
		details.PSK = ""
	}
	if jsonOut {
		return writeJSON(w, details)
	}

	t := theme.CurrentTheme
	fmt.Fprintf(w, "%s\n", t.Title(details.Name))
	fmt.Fprintf(w, "UUID: %s\n", details.ID)
	fmt.Fprintf(w, "Wireless: %s\n", t.Bool(details.IsWireless))
	if details.IsWireless {
		fmt.Fprintf(w, "SSID: %s\n", orNone(details.SSID))
	}
	if details.HWAddress != "" {
		fmt.Fprintf(w, "MAC: %s\n", details.HWAddress)
	}
	fmt.Fprintf(w, "Autoconnect: %s\n", t.Bool(details.AutoConnect))
	fmt.Fprintf(w, "IPv4 method: %s\n", details.IPv4.Method)
	if details.IPv4.Address != "" {
		fmt.Fprintf(w, "IPv4 address: %s\n", details.IPv4.Address)
	}
	if details.IPv4.Gateway != "" {
		fmt.Fprintf(w, "IPv4 gateway: %s\n", details.IPv4.Gateway)
	}
	if len(details.IPv4.DNS) > 0 {
		fmt.Fprintf(w, "DNS: %s\n", strings.Join(details.IPv4.DNS, ", "))
	}
	if details.ActiveAddress != "" {
		fmt.Fprintf(w, "Active address: %s\n", details.ActiveAddress)
	}
	if secret {
		fmt.Fprintf(w, "Passphrase: %s\n", details.PSK)
	}
	return nil
}

func runJoin(ctx context.Context, w io.Writer, ssid string, psk string, m network.Manager) error {
	if err := wirelessEnabled(ctx, m); err != nil {
		return fmt.Errorf("cannot join %s: %w", ssid, err)
	}
	id, err := m.AddWifiConnection(ctx, ssid, psk)
	if err != nil {
		return fmt.Errorf("failed to join %s: %w", ssid, err)
	}
	fmt.Fprintf(w, "Joined %s (%s)\n", ssid, id)
	return nil
}

// configureOptions are the flags of the configure command.
type configureOptions struct {
	Kind        network.Kind
	ID          string
	SSID        string
	PSK         string
	Method      string
	Address     string
	Gateway     string
	DNS         string
	AutoConnect bool
}

func (o configureOptions) details() (network.ConnectionDetails, error) {
	d := network.ConnectionDetails{
		ID:          o.ID,
		IsWireless:  o.Kind == network.KindWireless,
		PSK:         o.PSK,
		AutoConnect: o.AutoConnect,
	}
	if o.SSID != "" {
		ssid := o.SSID
		d.SSID = &ssid
	}
	switch network.IPv4Method(o.Method) {
	case network.IPv4Auto, "":
		d.IPv4.Method = network.IPv4Auto
	case network.IPv4Manual:
		if o.Address == "" {
			return d, fmt.Errorf("manual configuration requires -ip")
		}
		d.IPv4 = network.IPv4Config{
			Method:  network.IPv4Manual,
			Address: o.Address,
			Gateway: o.Gateway,
			DNS:     strings.FieldsFunc(o.DNS, func(r rune) bool { return r == ',' || r == ' ' }),
		}
	default:
		return d, fmt.Errorf("invalid method %q: want auto or manual", o.Method)
	}
	if o.ID == "" && d.IsWireless && d.SSID == nil {
		return d, fmt.Errorf("a new wifi connection requires -ssid")
	}
	return d, nil
}

func runConfigure(ctx context.Context, w io.Writer, opts configureOptions, m network.Manager) error {
	details, err := opts.details()
	if err != nil {
		return err
	}
	if err := m.SetConnectionDetails(ctx, opts.Kind, details, opts.ID); err != nil {
		return fmt.Errorf("failed to configure %s connection: %w", opts.Kind, err)
	}
	fmt.Fprintf(w, "Configured %s connection\n", opts.Kind)
	return nil
}

func runConnect(ctx context.Context, w io.Writer, kind network.Kind, m network.Manager) error {
	if err := m.ConnectInterface(ctx, kind); err != nil {
		return fmt.Errorf("failed to connect %s: %w", kind, err)
	}
	fmt.Fprintf(w, "Connected %s\n", kind)
	return nil
}

func runDisconnect(ctx context.Context, w io.Writer, kind network.Kind, m network.Manager) error {
	if err := m.DisconnectInterface(ctx, kind); err != nil {
		return fmt.Errorf("failed to disconnect %s: %w", kind, err)
	}
	fmt.Fprintf(w, "Disconnected %s\n", kind)
	return nil
}

func runRadio(ctx context.Context, w io.Writer, state string, m network.Manager) error {
	states := []string{"on", "off"}
	if !slices.Contains(states, state) {
		return fmt.Errorf("invalid radio state %q: want on or off", state)
	}
	if err := m.SetWifiRadio(ctx, state == "on"); err != nil {
		return fmt.Errorf("failed to switch radio %s: %w", state, err)
	}
	fmt.Fprintf(w, "Wi-Fi radio %s\n", state)
	return nil
}

func runReset(ctx context.Context, w io.Writer, m network.Manager) error {
	start := time.Now()
	if err := m.ResetWifi(ctx); err != nil {
		return fmt.Errorf("failed to reset wifi: %w", err)
	}
	fmt.Fprintf(w, "Wi-Fi radio reset in %s\n", formatDuration(time.Since(start)))
	return nil
}

func runDelete(ctx context.Context, w io.Writer, id string, m network.Manager) error {
	if err := m.DeleteConnection(ctx, id); err != nil {
		return fmt.Errorf("failed to delete %s: %w", id, err)
	}
	fmt.Fprintf(w, "Deleted %s\n", id)
	return nil
}
