package fake

import (
	"context"
	"strings"
	"testing"

	"github.com/shazow/nmctl/network/nmcli"
)

func newFake() *NMCLI {
	f := New()
	f.ActionSleep = 0
	return f
}

func TestNew(t *testing.T) {
	f := newFake()
	if len(f.Profiles) == 0 {
		t.Fatal("New() returned no profiles")
	}
	if f.Device("eth0").ConnectionID == "" {
		t.Error("expected eth0 to start connected")
	}
	if f.Device("wlan0").ConnectionID != "" {
		t.Error("expected wlan0 to start disconnected")
	}
}

func TestExecuteEscapesFields(t *testing.T) {
	f := newFake()
	r := f.Execute(context.Background(), nmcli.TargetTool, "-t", "-f", "GENERAL.HWADDR", "device", "show", "wlan0")
	if !r.OK() {
		t.Fatalf("device show failed: %+v", r)
	}
	if want := `GENERAL.HWADDR:DC\:A6\:32\:AB\:CD\:EF`; strings.TrimSpace(r.Output) != want {
		t.Errorf("got %q, want %q", r.Output, want)
	}
}

func TestShowProfileEscapesValues(t *testing.T) {
	f := newFake()
	p := f.AddProfile("Cafe:Guest", "802-11-wireless", "Cafe:Guest")
	r := f.Execute(context.Background(), nmcli.TargetTool, "-t", "con", "show", p.ID)
	if !r.OK() {
		t.Fatalf("con show failed: %+v", r)
	}
	for _, want := range []string{
		`connection.id:Cafe\:Guest`,
		`802-11-wireless.ssid:Cafe\:Guest`,
		`802-11-wireless.mac-address:DC\:A6\:32\:AB\:CD\:EF`,
	} {
		if !strings.Contains(r.Output, want+"\n") {
			t.Errorf("output missing %q:\n%s", want, r.Output)
		}
	}
}

func TestConDown(t *testing.T) {
	f := newFake()
	wired := f.Device("eth0").ConnectionID
	if r := f.Execute(context.Background(), nmcli.TargetTool, "con", "down", "uuid", wired); !r.OK() {
		t.Fatalf("con down failed: %+v", r)
	}
	if f.Device("eth0").ConnectionID != "" {
		t.Error("expected eth0 to be disconnected")
	}
	if r := f.Execute(context.Background(), nmcli.TargetTool, "con", "down", "uuid", wired); r.Status != nmcli.StatusNotFound {
		t.Errorf("status = %d, want %d", r.Status, nmcli.StatusNotFound)
	}
}

func TestConnectNumbersDuplicates(t *testing.T) {
	f := newFake()
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		r := f.Execute(ctx, nmcli.TargetTool, "dev", "wifi", "connect", "Unencrypted_Honeypot")
		if !r.OK() || !strings.Contains(r.Output, "UUID '") {
			t.Fatalf("connect %d failed: %+v", i, r)
		}
	}
	if f.Profile("Unencrypted_Honeypot") == nil || f.Profile("Unencrypted_Honeypot 1") == nil {
		t.Error("expected a numbered duplicate profile")
	}
}

func TestUnknownConnection(t *testing.T) {
	f := newFake()
	r := f.Execute(context.Background(), nmcli.TargetTool, "-t", "con", "show", "nope")
	if r.Status != nmcli.StatusNotFound {
		t.Errorf("status = %d, want %d", r.Status, nmcli.StatusNotFound)
	}
}

func TestFailuresLongestPrefix(t *testing.T) {
	f := newFake()
	f.Failures["radio"] = nmcli.Result{Status: 1}
	f.Failures["radio wifi off"] = nmcli.Result{Status: 2}

	if r := f.Execute(context.Background(), nmcli.TargetTool, "radio", "wifi", "off"); r.Status != 2 {
		t.Errorf("status = %d, want 2", r.Status)
	}
	if r := f.Execute(context.Background(), nmcli.TargetTool, "radio", "wifi", "on"); r.Status != 1 {
		t.Errorf("status = %d, want 1", r.Status)
	}
	if got := f.CallCount("radio wifi"); got != 2 {
		t.Errorf("CallCount = %d, want 2", got)
	}
}

func TestCanceledContext(t *testing.T) {
	f := newFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := f.Execute(ctx, nmcli.TargetTool, "--version"); r.Status != nmcli.StatusCanceled {
		t.Errorf("status = %d, want %d", r.Status, nmcli.StatusCanceled)
	}
}

func TestRadioRestoresAutoconnect(t *testing.T) {
	f := newFake()
	p := f.Profile("Password is password")
	p.AutoConnect = true
	ctx := context.Background()

	f.Execute(ctx, nmcli.TargetTool, "radio", "wifi", "off")
	if f.Device("wlan0").state() != "unavailable" {
		t.Errorf("wlan0 state = %s, want unavailable", f.Device("wlan0").state())
	}
	f.Execute(ctx, nmcli.TargetTool, "radio", "wifi", "on")
	if f.Device("wlan0").ConnectionID != p.ID {
		t.Error("expected wlan0 to autoconnect after the radio came back")
	}
}

func TestGetSecrets(t *testing.T) {
	f := newFake()
	p := f.Profile("Password is password")
	r := f.Execute(context.Background(), nmcli.TargetSecretBus, "--system", "--print-reply", p.Path, "GetSecrets")
	if !r.OK() || !strings.Contains(r.Output, `string "password"`) {
		t.Errorf("unexpected reply: %+v", r)
	}
	r = f.Execute(context.Background(), nmcli.TargetSecretBus, "--system", "--print-reply", settingsPath+"999")
	if r.OK() {
		t.Error("expected an error for an unknown path")
	}
}
