package nmcli

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shazow/nmctl/network"
)

var createdUUID = regexp.MustCompile(`UUID '([a-zA-Z0-9-]*)'`)

// extractUUID finds the id of a newly created profile in nmcli's
// confirmation text.
func extractUUID(out string) (string, error) {
	m := createdUUID.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("no connection UUID in response %q: %w", strings.TrimSpace(out), network.ErrOperationFailed)
	}
	id, err := uuid.Parse(m[1])
	if err != nil {
		return "", fmt.Errorf("invalid connection UUID %q: %w", m[1], network.ErrOperationFailed)
	}
	return id.String(), nil
}

// matchesSSID reports whether a profile name belongs to ssid: either the
// SSID itself or nmcli's numbered duplicate of it ("Home 1").
func matchesSSID(name, ssid string) bool {
	if name == ssid {
		return true
	}
	suffix, ok := strings.CutPrefix(name, ssid+" ")
	if !ok || suffix == "" {
		return false
	}
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ClearConnections deletes every profile that belongs to ssid and returns
// how many were deleted.
func (c *Client) ClearConnections(ctx context.Context, ssid string) (int, error) {
	profiles, err := c.ConfiguredConnections(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, p := range profiles {
		if !matchesSSID(p.Name, ssid) {
			continue
		}
		c.logger.Info("deleting connection", "name", p.Name, "uuid", p.ID)
		if err := c.DeleteConnection(ctx, p.ID); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// AddWifiConnection joins ssid and returns the id of the profile nmcli
// creates for it. Existing profiles for the same SSID are deleted first,
// since nmcli would otherwise add a numbered duplicate.
func (c *Client) AddWifiConnection(ctx context.Context, ssid string, psk string) (string, error) {
	if ssid == "" {
		return "", fmt.Errorf("missing ssid: %w", network.ErrOperationFailed)
	}
	if _, err := c.ClearConnections(ctx, ssid); err != nil {
		return "", fmt.Errorf("failed to clear stale connections for %s: %w", ssid, err)
	}

	args := []string{"dev", "wifi", "connect", ssid}
	if psk != "" {
		args = append(args, "password", psk)
	}
	c.logger.Info("creating connection", "ssid", ssid)
	r := c.run(ctx, args...)
	if !r.OK() {
		err := commandError(args, r)
		c.logger.Warn("failed to join network", "ssid", ssid, "error", err)
		return "", err
	}

	id, err := extractUUID(r.Output)
	if err != nil {
		c.logger.Error("could not extract UUID from wifi connect response", "ssid", ssid)
		return "", err
	}
	return id, nil
}

// exists reports whether nmcli knows the profile id.
func (c *Client) exists(ctx context.Context, id string) (bool, error) {
	args := []string{"-t", "con", "show", id}
	r := c.run(ctx, args...)
	switch {
	case r.OK():
		return true, nil
	case r.Status == StatusNotFound:
		return false, nil
	}
	return false, commandError(args, r)
}

// SetConnectionDetails writes details to the profile id and brings it up
// when it autoconnects, otherwise leaves it inactive. If id is empty or
// unknown and iface is wireless, a profile is created for details.SSID
// first. Wired profiles are never created.
func (c *Client) SetConnectionDetails(ctx context.Context, iface network.Kind, details network.ConnectionDetails, id string) error {
	if id != "" {
		ok, err := c.exists(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			c.logger.Info("connection not found, creating a new one", "uuid", id)
			id = ""
		}
	}

	created := id == ""
	if created {
		if iface != network.KindWireless {
			c.logger.Error("cannot add connection for interface, only wifi is supported", "interface", iface)
			return fmt.Errorf("cannot create %s connection: %w", iface, network.ErrNotSupported)
		}
		var ssid string
		if details.SSID != nil {
			ssid = *details.SSID
		}
		var err error
		id, err = c.AddWifiConnection(ctx, ssid, details.PSK)
		if err != nil {
			return fmt.Errorf("could not add wifi connection: %w", err)
		}
	}

	autoconnect := details.AutoConnect
	if iface == network.KindWired {
		// Never leave the wired link without a way back up.
		autoconnect = true
	}

	args := []string{"-t", "con", "modify", id}
	if (iface == network.KindWireless || details.IsWireless) && details.PSK != "" {
		args = append(args, keyPSK, details.PSK)
	}
	args = append(args, keyAutoConnect, formatYes(autoconnect))

	method := details.IPv4.Method
	if method == "" {
		method = network.IPv4Auto
	}
	args = append(args, keyIPv4Method, string(method))
	if method == network.IPv4Manual {
		args = append(args,
			keyIPv4Addresses, formatAddressPair(details.IPv4.Address, details.IPv4.Gateway),
			keyIPv4DNS, strings.Join(details.IPv4.DNS, " "),
		)
	}

	if err := c.exec(ctx, args...); err != nil {
		return err
	}
	if !autoconnect {
		if created {
			// Joining activated it.
			if err := c.exec(ctx, "con", "down", "uuid", id); err != nil {
				return fmt.Errorf("could not deactivate new connection: %w", err)
			}
		}
		c.logger.Info("connection saved without activating", "uuid", id)
		return nil
	}
	return c.exec(ctx, "con", "up", id)
}

// formatAddressPair encodes a manual address for `con modify`. A gateway
// placeholder is used when only an address is given.
func formatAddressPair(address, gateway string) string {
	if address == "" {
		return ""
	}
	if gateway == "" {
		gateway = unsetGateway
	}
	return address + " " + gateway
}

// DisconnectInterface disconnects the device of the given kind. A device
// without a connection is already disconnected. The device-level command is
// used because it also stops the device from autoconnecting right away.
func (c *Client) DisconnectInterface(ctx context.Context, kind network.Kind) error {
	iface, err := c.interfaceOf(ctx, kind)
	if err != nil {
		c.logger.Error("could not find interface", "interface", kind)
		return err
	}
	if iface.ConnectionID == nil && !iface.Connected() {
		c.logger.Debug("interface already disconnected", "device", iface.Device)
		return nil
	}
	return c.exec(ctx, "dev", "disconnect", iface.Device)
}

// ConnectInterface activates the first autoconnect profile of the given
// kind that comes up. Failed candidates are skipped.
func (c *Client) ConnectInterface(ctx context.Context, kind network.Kind) error {
	profiles, err := c.ConfiguredConnections(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range profiles {
		if p.Kind != kind || !p.AutoConnect {
			continue
		}
		err := c.exec(ctx, "con", "up", p.ID)
		if err == nil {
			c.logger.Info("connection activated", "name", p.Name, "uuid", p.ID)
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return fmt.Errorf("no autoconnect %s connection: %w", kind, network.ErrNotFound)
	}
	return fmt.Errorf("no %s connection could be activated: %w", kind, errors.Join(errs...))
}

// SetWifiRadio switches the wireless radio on or off.
func (c *Client) SetWifiRadio(ctx context.Context, enabled bool) error {
	state := "off"
	if enabled {
		state = "on"
	}
	return c.exec(ctx, "radio", "wifi", state)
}

// ResetWifi turns the radio off, waits for the reset delay and turns it on
// again. If ctx ends during the wait the radio is still switched back on.
func (c *Client) ResetWifi(ctx context.Context) error {
	if err := c.SetWifiRadio(ctx, false); err != nil {
		c.logger.Warn("failed to switch wifi radio off", "error", err)
	}

	timer := time.NewTimer(c.resetDelay)
	defer timer.Stop()
	var waitErr error
	select {
	case <-timer.C:
	case <-ctx.Done():
		waitErr = ctx.Err()
		ctx = context.WithoutCancel(ctx)
	}

	if err := c.SetWifiRadio(ctx, true); err != nil {
		return err
	}
	if waitErr != nil {
		return waitErr
	}
	c.logger.Info("wifi reset")
	return nil
}

// DeleteConnection deletes a profile. An unknown id is already deleted.
func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	args := []string{"con", "delete", "uuid", id}
	r := c.run(ctx, args...)
	switch {
	case r.OK():
		c.logger.Info("connection deleted", "uuid", id)
		return nil
	case r.Status == StatusNotFound:
		c.logger.Debug("connection already absent", "uuid", id)
		return nil
	}
	err := commandError(args, r)
	c.logger.Warn("an error occurred deleting a connection", "uuid", id, "error", err)
	return err
}
