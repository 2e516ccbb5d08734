package nmcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/shazow/nmctl/network"
)

// Interfaces lists the machine's network devices, excluding loopback.
func (c *Client) Interfaces(ctx context.Context) ([]network.Interface, error) {
	out, err := c.query(ctx, "-t", "-f", fieldArg(interfaceFields), "dev")
	if err != nil {
		return nil, err
	}

	var ifaces []network.Interface
	for _, row := range ParseTable(out) {
		iface, ok := mapInterface(MapRow(interfaceFields, row))
		if !ok {
			if len(row) != len(interfaceFields) {
				c.logger.Warn("unparsable device row", "fields", len(row))
			}
			continue
		}
		iface.HWAddress = c.hwAddress(ctx, iface.Device)
		ifaces = append(ifaces, iface)
	}
	return ifaces, nil
}

// hwAddress resolves a device's hardware address. Successful lookups are
// cached for the life of the Client.
func (c *Client) hwAddress(ctx context.Context, device string) *string {
	c.mu.Lock()
	addr, ok := c.hwAddrs[device]
	c.mu.Unlock()
	if ok {
		return &addr
	}

	out, err := c.query(ctx, "-t", "-f", keyHWAddress, "device", "show", device)
	if err != nil {
		c.logger.Debug("failed to resolve hardware address", "device", device, "error", err)
		return nil
	}
	addr, ok = MapKeyValue(ParseKeyValue(out)).Get(keyHWAddress)
	if !ok {
		return nil
	}

	c.mu.Lock()
	c.hwAddrs[device] = addr
	c.mu.Unlock()
	return &addr
}

// interfaceOf returns the first device of the given kind.
func (c *Client) interfaceOf(ctx context.Context, kind network.Kind) (network.Interface, error) {
	ifaces, err := c.Interfaces(ctx)
	if err != nil {
		return network.Interface{}, err
	}
	for _, iface := range ifaces {
		if iface.Kind == kind {
			return iface, nil
		}
	}
	return network.Interface{}, fmt.Errorf("no %s interface: %w", kind, network.ErrNotFound)
}

// Status returns a snapshot of every interface keyed by kind. Details of
// bound connections are merged in when they can be read; secrets are never
// looked up.
func (c *Client) Status(ctx context.Context) (network.Status, error) {
	ifaces, err := c.Interfaces(ctx)
	if err != nil {
		return nil, err
	}

	status := make(network.Status, len(ifaces))
	for _, iface := range ifaces {
		st := network.InterfaceStatus{
			ConnectionID: iface.ConnectionID,
			Connected:    iface.Connected(),
			Enabled:      iface.Enabled(),
			HWAddress:    iface.HWAddress,
		}
		if iface.ConnectionID != nil {
			details, err := c.ConnectionDetails(ctx, *iface.ConnectionID, false)
			switch {
			case err == nil:
				st.SSID = details.SSID
				if details.ActiveAddress != "" {
					ip := details.ActiveAddress
					st.IP = &ip
				}
			case errors.Is(err, network.ErrNotFound):
				c.logger.Debug("bound connection vanished", "device", iface.Device, "uuid", *iface.ConnectionID)
			}
		}
		status[iface.Kind] = st
	}
	return status, nil
}

// Rescan asks nmcli to refresh its access point list.
func (c *Client) Rescan(ctx context.Context) error {
	args := []string{"dev", "wifi", "rescan"}
	if r := c.run(ctx, args...); !r.OK() {
		return commandError(args, r)
	}
	return nil
}

// ScanWifi lists visible cells, one per SSID with the strongest signal, in
// order of first appearance. With force, a rescan is requested first; its
// failure is ignored since nmcli still serves the last scan results.
//
// Each cell is linked to the first saved profile whose name equals its SSID.
// When several profiles share a name, which one wins depends on nmcli's
// listing order.
func (c *Client) ScanWifi(ctx context.Context, force bool) ([]network.WifiCell, error) {
	if force {
		if err := c.Rescan(ctx); err != nil {
			c.logger.Debug("rescan failed, using cached scan results", "error", err)
		}
	}

	out, err := c.query(ctx, "-t", "-f", fieldArg(cellFields), "dev", "wifi", "list")
	if err != nil {
		return nil, err
	}

	var cells []network.WifiCell
	for _, row := range ParseTable(out) {
		if cell, ok := mapCell(MapRow(cellFields, row)); ok {
			cells = append(cells, cell)
		}
	}
	cells = dedupCells(cells)

	profiles, err := c.ConfiguredConnections(ctx)
	if err != nil {
		c.logger.Warn("failed to list connections for scan results", "error", err)
		return cells, nil
	}
	for i := range cells {
		for _, p := range profiles {
			if p.Name == cells[i].SSID {
				id := p.ID
				cells[i].ConnectionID = &id
				break
			}
		}
	}
	return cells, nil
}

// dedupCells keeps one cell per SSID, the one with the highest signal, at
// the position where the SSID first appeared.
func dedupCells(cells []network.WifiCell) []network.WifiCell {
	index := make(map[string]int, len(cells))
	var result []network.WifiCell
	for _, cell := range cells {
		i, seen := index[cell.SSID]
		if !seen {
			index[cell.SSID] = len(result)
			result = append(result, cell)
			continue
		}
		if cell.Signal > result[i].Signal {
			result[i] = cell
		}
	}
	return result
}

// ConfiguredConnections lists every saved connection profile.
func (c *Client) ConfiguredConnections(ctx context.Context) ([]network.ConnectionProfile, error) {
	out, err := c.query(ctx, "-t", "-f", fieldArg(profileFields), "con", "show")
	if err != nil {
		return nil, err
	}

	var profiles []network.ConnectionProfile
	for _, row := range ParseTable(out) {
		if p, ok := mapProfile(MapRow(profileFields, row)); ok {
			profiles = append(profiles, p)
		}
	}
	return profiles, nil
}

// ActiveConnections lists the profiles currently bound to a device.
func (c *Client) ActiveConnections(ctx context.Context) ([]network.ActiveConnection, error) {
	out, err := c.query(ctx, "-t", "-f", fieldArg(activeFields), "con", "show", "--active")
	if err != nil {
		return nil, err
	}

	var active []network.ActiveConnection
	for _, row := range ParseTable(out) {
		rec := MapRow(activeFields, row)
		id, ok := rec.Get("uuid")
		if !ok {
			continue
		}
		typ, _ := rec.Get("type")
		active = append(active, network.ActiveConnection{
			ID:     id,
			Name:   rec["name"],
			Kind:   network.ParseKind(typ),
			Device: rec["device"],
		})
	}
	return active, nil
}

// IsWifiConfigured reports whether the machine has a wireless device.
func (c *Client) IsWifiConfigured(ctx context.Context) (bool, error) {
	out, err := c.query(ctx, "-t", "-f", "type", "dev")
	if err != nil {
		return false, err
	}
	for _, row := range ParseTable(out) {
		if len(row) > 0 && network.ParseKind(row[0]) == network.KindWireless {
			return true, nil
		}
	}
	return false, nil
}

// IsDeviceActive reports whether the named device (wlan0, eth0, ...) is
// connected. Unknown devices are not active.
func (c *Client) IsDeviceActive(ctx context.Context, device string) (bool, error) {
	out, err := c.query(ctx, "-t", "-f", fieldArg(deviceFields), "device", "status")
	if err != nil {
		return false, err
	}
	for _, row := range ParseTable(out) {
		rec := MapRow(deviceFields, row)
		if name, ok := rec.Get("device"); ok && name == device {
			return network.DeviceState(rec["state"]) == network.StateConnected, nil
		}
	}
	return false, nil
}

// ConnectionDetails returns the configuration of a profile, or
// network.ErrNotFound if nmcli does not know the id. The PSK is only looked
// up when includeSecret is set; failing to find it leaves it empty.
func (c *Client) ConnectionDetails(ctx context.Context, id string, includeSecret bool) (*network.ConnectionDetails, error) {
	args := []string{"-t", "con", "show", id}
	r := c.run(ctx, args...)
	switch {
	case r.Status == StatusNotFound:
		return nil, fmt.Errorf("connection %s: %w", id, network.ErrNotFound)
	case !r.OK():
		err := commandError(args, r)
		c.logger.Warn("failed to read connection details", "uuid", id, "error", err)
		return nil, err
	}

	details := mapDetails(id, MapKeyValue(ParseKeyValue(r.Output)))
	if includeSecret && details.IsWireless {
		details.PSK = c.secret(ctx, id)
	}
	return &details, nil
}

// secret looks up the PSK of a profile through its bus locator. Failure is
// only logged.
func (c *Client) secret(ctx context.Context, id string) string {
	profiles, err := c.ConfiguredConnections(ctx)
	if err != nil {
		c.logger.Warn("failed to resolve secret locator", "uuid", id, "error", err)
		return ""
	}
	var locator string
	for _, p := range profiles {
		if p.ID == id {
			locator = p.Locator
			break
		}
	}
	if locator == "" {
		c.logger.Warn("no secret locator for connection", "uuid", id)
		return ""
	}

	psk, err := c.secrets.PSK(ctx, locator)
	if err != nil {
		c.logger.Warn("failed to get connection secret", "uuid", id, "error", err)
		return ""
	}
	return psk
}
