// Package fake provides an in-memory stand-in for nmcli and NetworkManager's
// secret interface, implementing nmcli.Transport.
package fake

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shazow/nmctl/network/nmcli"
)

var DefaultActionSleep = 500 * time.Millisecond

const settingsPath = "/org/freedesktop/NetworkManager/Settings/"

// Device is a simulated network device.
type Device struct {
	Name         string
	Type         string // "wifi", "ethernet" or "loopback"
	HWAddress    string
	Enabled      bool
	ConnectionID string
}

func (d *Device) state() string {
	switch {
	case d.Type == "loopback":
		return "unmanaged"
	case d.ConnectionID != "":
		return "connected"
	case !d.Enabled:
		return "unavailable"
	}
	return "disconnected"
}

// Profile is a simulated saved connection.
type Profile struct {
	ID          string
	Name        string
	Type        string // "802-11-wireless" or "802-3-ethernet"
	AutoConnect bool
	Path        string
	SSID        string
	PSK         string
	IPv4Method  string
	IPv4Address string
	IPv4Gateway string
	DNS         []string
}

func (p *Profile) wireless() bool {
	return strings.Contains(p.Type, "wireless")
}

// Cell is a simulated access point.
type Cell struct {
	SSID     string
	Signal   int
	Security string
}

// Call is one command received by the fake.
type Call struct {
	Target nmcli.Target
	Args   []string
}

func (c Call) String() string {
	return strings.Join(c.Args, " ")
}

// NMCLI simulates nmcli's terse output and the state changes behind it.
type NMCLI struct {
	mu sync.Mutex

	Version      string
	Devices      []*Device
	Profiles     []*Profile
	Cells        []Cell
	RadioEnabled bool

	// Failures injects a result for any command whose space-joined
	// arguments start with the key. The longest matching key wins.
	Failures map[string]nmcli.Result
	// Calls records every command received.
	Calls []Call

	// ActionSleep is a delay before every command, to better emulate a real-world tool. Set to 0 during testing.
	ActionSleep time.Duration

	nextPath int
}

// New creates a fake with a wired and a wireless device, a few saved
// profiles and a list of fun wifi networks.
func New() *NMCLI {
	f := &NMCLI{
		Version:      "1.22.10",
		RadioEnabled: true,
		Failures:     make(map[string]nmcli.Result),
		Devices: []*Device{
			{Name: "lo", Type: "loopback", HWAddress: "00:00:00:00:00:00", Enabled: true},
			{Name: "eth0", Type: "ethernet", HWAddress: "52:54:00:12:34:56", Enabled: true},
			{Name: "wlan0", Type: "wifi", HWAddress: "DC:A6:32:AB:CD:EF", Enabled: true},
		},
		Cells: []Cell{
			{SSID: "HideYoKidsHideYoWiFi", Signal: 72, Security: "WPA2"},
			{SSID: "Password is password", Signal: 87, Security: "WPA2"},
			{SSID: "Unencrypted_Honeypot", Signal: 35},
			{SSID: "Multi-AP Network", Signal: 60, Security: "WPA1 WPA2"},
			{SSID: "TacoBoutAGoodSignal", Signal: 99, Security: "WPA2"},
			{SSID: "Multi-AP Network", Signal: 80, Security: "WPA1 WPA2"},
			{SSID: "NeverGonnaGiveYouIP", Signal: 41, Security: "WEP"},
			{SSID: "Multi-AP Network", Signal: 40, Security: "WPA1 WPA2"},
		},
		ActionSleep: DefaultActionSleep,
	}
	wired := f.addProfile("Wired connection 1", "802-3-ethernet", "")
	wired.AutoConnect = true
	f.Devices[1].ConnectionID = wired.ID

	known := f.addProfile("Password is password", "802-11-wireless", "Password is password")
	known.PSK = "password"
	return f
}

func (f *NMCLI) addProfile(name, typ, ssid string) *Profile {
	f.nextPath++
	p := &Profile{
		ID:         uuid.New().String(),
		Name:       name,
		Type:       typ,
		Path:       fmt.Sprintf("%s%d", settingsPath, f.nextPath),
		SSID:       ssid,
		IPv4Method: "auto",
	}
	f.Profiles = append(f.Profiles, p)
	return p
}

// AddProfile saves a new profile and returns it.
func (f *NMCLI) AddProfile(name, typ, ssid string) *Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addProfile(name, typ, ssid)
}

// Profile returns the first profile with the given name, or nil.
func (f *NMCLI) Profile(name string) *Profile {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.Profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Device returns the named device, or nil.
func (f *NMCLI) Device(name string) *Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.device(name)
}

// CallCount returns how many received commands start with prefix.
func (f *NMCLI) CallCount(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.Calls {
		if strings.HasPrefix(c.String(), prefix) {
			n++
		}
	}
	return n
}

func ok(out string) nmcli.Result {
	return nmcli.Result{Output: out}
}

func fail(status int, format string, a ...any) nmcli.Result {
	return nmcli.Result{Status: status, Output: fmt.Sprintf("Error: "+format+"\n", a...)}
}

// Execute implements nmcli.Transport.
func (f *NMCLI) Execute(ctx context.Context, target nmcli.Target, args ...string) nmcli.Result {
	time.Sleep(f.ActionSleep)
	if err := ctx.Err(); err != nil {
		return nmcli.Result{Status: nmcli.StatusCanceled, Output: err.Error()}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, Call{Target: target, Args: slices.Clone(args)})
	if r, ok := f.failure(args); ok {
		return r
	}
	if target == nmcli.TargetSecretBus {
		return f.getSecrets(args)
	}
	return f.nmcli(args)
}

func (f *NMCLI) failure(args []string) (nmcli.Result, bool) {
	joined := strings.Join(args, " ")
	best := -1
	var result nmcli.Result
	for prefix, r := range f.Failures {
		if strings.HasPrefix(joined, prefix) && len(prefix) > best {
			best = len(prefix)
			result = r
		}
	}
	return result, best >= 0
}

// nmcli dispatches on the arguments this module sends. Field lists given
// with -f are dropped before matching.
func (f *NMCLI) nmcli(args []string) nmcli.Result {
	var fields string
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-t":
		case "-f":
			if i+1 < len(args) {
				fields = args[i+1]
				i++
			}
		default:
			rest = append(rest, args[i])
		}
	}
	cmd := strings.Join(rest, " ")

	switch {
	case cmd == "--version":
		return ok("nmcli tool, version " + f.Version + "\n")
	case cmd == "dev" && fields == "type":
		return f.listDeviceTypes()
	case cmd == "dev":
		return f.listDevices()
	case cmd == "device status":
		return f.deviceStatus()
	case strings.HasPrefix(cmd, "device show "):
		return f.hwAddress(rest[2])
	case cmd == "dev wifi list":
		return f.listCells()
	case cmd == "dev wifi rescan":
		if !f.RadioEnabled {
			return fail(1, "Wi-Fi is disabled.")
		}
		return ok("")
	case strings.HasPrefix(cmd, "dev wifi connect "):
		return f.connect(rest[3:])
	case strings.HasPrefix(cmd, "dev disconnect "):
		return f.disconnect(rest[2])
	case cmd == "con show":
		return f.listProfiles(false)
	case cmd == "con show --active":
		return f.listProfiles(true)
	case strings.HasPrefix(cmd, "con show "):
		return f.showProfile(rest[2])
	case strings.HasPrefix(cmd, "con modify "):
		return f.modify(rest[2], rest[3:])
	case strings.HasPrefix(cmd, "con up "):
		return f.up(rest[2])
	case strings.HasPrefix(cmd, "con down uuid "):
		return f.down(rest[3])
	case strings.HasPrefix(cmd, "con delete uuid "):
		return f.delete(rest[3])
	case strings.HasPrefix(cmd, "radio wifi "):
		return f.radio(rest[2] == "on")
	}
	return fail(2, "argument '%s' not understood.", cmd)
}

func (f *NMCLI) device(name string) *Device {
	for _, d := range f.Devices {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (f *NMCLI) deviceOfType(typ string) *Device {
	for _, d := range f.Devices {
		if d.Type == typ {
			return d
		}
	}
	return nil
}

func (f *NMCLI) profile(id string) *Profile {
	for _, p := range f.Profiles {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *NMCLI) boundDevice(id string) *Device {
	for _, d := range f.Devices {
		if d.ConnectionID == id {
			return d
		}
	}
	return nil
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `:`, `\:`).Replace(s)
}

func row(fields ...string) string {
	for i, v := range fields {
		fields[i] = escape(v)
	}
	return strings.Join(fields, ":") + "\n"
}

func placeholder(s string) string {
	if s == "" {
		return "--"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (f *NMCLI) listDeviceTypes() nmcli.Result {
	var b strings.Builder
	for _, d := range f.Devices {
		b.WriteString(row(d.Type))
	}
	return ok(b.String())
}

func (f *NMCLI) listDevices() nmcli.Result {
	var b strings.Builder
	for _, d := range f.Devices {
		b.WriteString(row(d.Type, d.Name, placeholder(d.ConnectionID), d.state()))
	}
	return ok(b.String())
}

func (f *NMCLI) deviceStatus() nmcli.Result {
	var b strings.Builder
	for _, d := range f.Devices {
		b.WriteString(row(d.Name, d.state()))
	}
	return ok(b.String())
}

func (f *NMCLI) hwAddress(name string) nmcli.Result {
	d := f.device(name)
	if d == nil {
		return fail(10, "Device '%s' not found.", name)
	}
	return ok("GENERAL.HWADDR:" + escape(d.HWAddress) + "\n")
}

func (f *NMCLI) listCells() nmcli.Result {
	if !f.RadioEnabled {
		return ok("")
	}
	var b strings.Builder
	for _, c := range f.Cells {
		b.WriteString(row(c.SSID, fmt.Sprint(c.Signal), c.Security))
	}
	return ok(b.String())
}

func (f *NMCLI) listProfiles(active bool) nmcli.Result {
	var b strings.Builder
	for _, p := range f.Profiles {
		d := f.boundDevice(p.ID)
		switch {
		case active && d == nil:
			continue
		case active:
			b.WriteString(row(p.Name, p.ID, p.Type, d.Name))
		default:
			b.WriteString(row(p.Name, p.ID, p.Type, yesNo(p.AutoConnect), p.Path))
		}
	}
	return ok(b.String())
}

func (f *NMCLI) showProfile(id string) nmcli.Result {
	p := f.profile(id)
	if p == nil {
		return fail(nmcli.StatusNotFound, "%s - no such connection profile.", id)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "connection.id:%s\n", escape(p.Name))
	fmt.Fprintf(&b, "connection.uuid:%s\n", p.ID)
	fmt.Fprintf(&b, "connection.type:%s\n", p.Type)
	fmt.Fprintf(&b, "connection.autoconnect:%s\n", yesNo(p.AutoConnect))
	if p.wireless() {
		fmt.Fprintf(&b, "802-11-wireless.ssid:%s\n", escape(p.SSID))
		fmt.Fprintf(&b, "802-11-wireless.mac-address:%s\n", escape(placeholder(f.hwAddressOf("wifi"))))
	} else {
		fmt.Fprintf(&b, "802-3-ethernet.mac-address:%s\n", escape(placeholder(f.hwAddressOf("ethernet"))))
	}
	fmt.Fprintf(&b, "ipv4.method:%s\n", p.IPv4Method)
	fmt.Fprintf(&b, "ipv4.addresses:%s\n", addressPair(p.IPv4Address, p.IPv4Gateway))
	fmt.Fprintf(&b, "ipv4.dns:%s\n", strings.Join(p.DNS, ","))
	if f.boundDevice(p.ID) != nil {
		active := addressPair(p.IPv4Address, p.IPv4Gateway)
		if p.IPv4Method != "manual" || p.IPv4Address == "" {
			active = "{ ip = 192.168.1.23/24, gw = 192.168.1.1 }"
		}
		fmt.Fprintf(&b, "IP4.ADDRESS[1]:%s\n", active)
	}
	return ok(b.String())
}

func (f *NMCLI) hwAddressOf(typ string) string {
	if d := f.deviceOfType(typ); d != nil {
		return d.HWAddress
	}
	return ""
}

func addressPair(address, gateway string) string {
	if address == "" {
		return ""
	}
	if gateway == "" {
		gateway = "0.0.0.0"
	}
	return fmt.Sprintf("{ ip = %s, gw = %s }", address, gateway)
}

func (f *NMCLI) cell(ssid string) (Cell, bool) {
	for _, c := range f.Cells {
		if c.SSID == ssid {
			return c, true
		}
	}
	return Cell{}, false
}

// uniqueName mimics nmcli numbering a new profile whose name is taken.
func (f *NMCLI) uniqueName(name string) string {
	taken := func(n string) bool {
		return slices.ContainsFunc(f.Profiles, func(p *Profile) bool { return p.Name == n })
	}
	if !taken(name) {
		return name
	}
	for i := 1; ; i++ {
		if n := fmt.Sprintf("%s %d", name, i); !taken(n) {
			return n
		}
	}
}

func (f *NMCLI) connect(args []string) nmcli.Result {
	if len(args) == 0 {
		return fail(2, "SSID or BSSID are missing.")
	}
	ssid := args[0]
	var psk string
	if len(args) >= 3 && args[1] == "password" {
		psk = args[2]
	}

	wifi := f.deviceOfType("wifi")
	if wifi == nil || !f.RadioEnabled {
		return fail(10, "No Wi-Fi device found.")
	}
	c, visible := f.cell(ssid)
	if !visible {
		return fail(10, "No network with SSID '%s' found.", ssid)
	}
	if c.Security != "" && psk == "" {
		return fail(4, "Connection activation failed: Secrets were required, but not provided.")
	}

	p := f.addProfile(f.uniqueName(ssid), "802-11-wireless", ssid)
	p.PSK = psk
	p.AutoConnect = true
	f.bind(wifi, p)
	return ok(fmt.Sprintf("Connection with UUID '%s' created and activated on device '%s'\n", p.ID, wifi.Name))
}

func (f *NMCLI) bind(d *Device, p *Profile) {
	for _, other := range f.Devices {
		if other.ConnectionID == p.ID {
			other.ConnectionID = ""
		}
	}
	d.ConnectionID = p.ID
}

func (f *NMCLI) disconnect(name string) nmcli.Result {
	d := f.device(name)
	if d == nil {
		return fail(10, "Device '%s' not found.", name)
	}
	if d.ConnectionID == "" {
		return fail(6, "Device '%s' (%s) disconnecting failed: This device is not active", name, d.Type)
	}
	d.ConnectionID = ""
	return ok(fmt.Sprintf("Device '%s' successfully disconnected.\n", name))
}

func (f *NMCLI) down(id string) nmcli.Result {
	if f.profile(id) == nil {
		return fail(nmcli.StatusNotFound, "'%s' is not an active connection.", id)
	}
	d := f.boundDevice(id)
	if d == nil {
		return fail(nmcli.StatusNotFound, "'%s' is not an active connection.", id)
	}
	d.ConnectionID = ""
	return ok(fmt.Sprintf("Connection '%s' successfully deactivated (D-Bus active path: /org/freedesktop/NetworkManager/ActiveConnection/%d)\n", id, f.nextPath))
}

func (f *NMCLI) modify(id string, settings []string) nmcli.Result {
	p := f.profile(id)
	if p == nil {
		return fail(nmcli.StatusNotFound, "unknown connection '%s'.", id)
	}
	if len(settings)%2 != 0 {
		return fail(2, "value for '%s' is missing.", settings[len(settings)-1])
	}
	for i := 0; i < len(settings); i += 2 {
		key, value := settings[i], settings[i+1]
		switch key {
		case "802-11-wireless-security.psk":
			p.PSK = value
		case "connection.autoconnect":
			p.AutoConnect = value == "yes"
		case "ipv4.method":
			p.IPv4Method = value
		case "ipv4.addresses":
			fields := strings.Fields(value)
			p.IPv4Address, p.IPv4Gateway = "", ""
			if len(fields) > 0 {
				p.IPv4Address = fields[0]
			}
			if len(fields) > 1 && fields[1] != "0.0.0.0" {
				p.IPv4Gateway = fields[1]
			}
		case "ipv4.dns":
			p.DNS = strings.Fields(value)
		default:
			return fail(2, "invalid property '%s'.", key)
		}
	}
	return ok("")
}

func (f *NMCLI) up(id string) nmcli.Result {
	p := f.profile(id)
	if p == nil {
		return fail(nmcli.StatusNotFound, "unknown connection '%s'.", id)
	}
	typ := "ethernet"
	if p.wireless() {
		typ = "wifi"
		if !f.RadioEnabled {
			return fail(4, "Connection activation failed: No suitable device found for this connection.")
		}
		if _, visible := f.cell(p.SSID); !visible {
			return fail(4, "Connection activation failed: The Wi-Fi network could not be found.")
		}
	}
	d := f.deviceOfType(typ)
	if d == nil || !d.Enabled {
		return fail(4, "Connection activation failed: No suitable device found for this connection.")
	}
	f.bind(d, p)
	return ok(fmt.Sprintf("Connection successfully activated (D-Bus active path: /org/freedesktop/NetworkManager/ActiveConnection/%d)\n", f.nextPath))
}

func (f *NMCLI) delete(id string) nmcli.Result {
	i := slices.IndexFunc(f.Profiles, func(p *Profile) bool { return p.ID == id })
	if i < 0 {
		return fail(nmcli.StatusNotFound, "unknown connection '%s'.", id)
	}
	if d := f.boundDevice(id); d != nil {
		d.ConnectionID = ""
	}
	f.Profiles = slices.Delete(f.Profiles, i, i+1)
	return ok(fmt.Sprintf("Connection '%s' successfully deleted.\n", id))
}

func (f *NMCLI) radio(on bool) nmcli.Result {
	f.RadioEnabled = on
	wifi := f.deviceOfType("wifi")
	if wifi == nil {
		return ok("")
	}
	wifi.Enabled = on
	if !on {
		wifi.ConnectionID = ""
		return ok("")
	}
	for _, p := range f.Profiles {
		if _, visible := f.cell(p.SSID); p.wireless() && p.AutoConnect && visible {
			f.bind(wifi, p)
			break
		}
	}
	return ok("")
}

const secretsReply = `method return time=1700000000.000000 sender=:1.7 -> destination=:1.285 serial=2 reply_serial=2
   array [
      dict entry(
         string "802-11-wireless"
         array [
         ]
      )
      dict entry(
         string "802-11-wireless-security"
         array [
            dict entry(
               string "psk"
               variant                   string %q
            )
         ]
      )
   ]
`

func (f *NMCLI) getSecrets(args []string) nmcli.Result {
	var path string
	for _, a := range args {
		if strings.HasPrefix(a, settingsPath) {
			path = a
		}
	}
	for _, p := range f.Profiles {
		if p.Path == path && path != "" {
			return ok(fmt.Sprintf(secretsReply, p.PSK))
		}
	}
	return nmcli.Result{Status: 1, Output: fmt.Sprintf("Error org.freedesktop.DBus.Error.UnknownMethod: No such interface at object path '%s'\n", path)}
}
