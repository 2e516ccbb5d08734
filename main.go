package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/shazow/nmctl/internal/config"
	nmlog "github.com/shazow/nmctl/internal/log"
	"github.com/shazow/nmctl/internal/theme"
	"github.com/shazow/nmctl/network"
)

var (
	// Version is the version of the application. It is set at build time.
	Version string = "dev"
)

// needArgs wraps an Exec that requires exactly n positional arguments.
func needArgs(n int, usage string, exec func(ctx context.Context, args []string) error) func(context.Context, []string) error {
	return func(ctx context.Context, args []string) error {
		if len(args) != n {
			return fmt.Errorf("usage: %s", usage)
		}
		return exec(ctx, args)
	}
}

// newCommands builds the subcommands. m is resolved lazily so that help
// output works without nmcli installed.
func newCommands(w io.Writer, m func(context.Context) (network.Manager, error)) []*ffcli.Command {
	withManager := func(run func(ctx context.Context, args []string, m network.Manager) error) func(context.Context, []string) error {
		return func(ctx context.Context, args []string) error {
			mgr, err := m(ctx)
			if err != nil {
				return err
			}
			return run(ctx, args, mgr)
		}
	}

	statusFlagSet := flag.NewFlagSet("status", flag.ExitOnError)
	statusJSON := statusFlagSet.Bool("json", false, "output in JSON format")
	statusCmd := &ffcli.Command{
		Name:      "status",
		ShortHelp: "Show wired and wireless connectivity",
		FlagSet:   statusFlagSet,
		Exec: withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runStatus(ctx, w, *statusJSON, m)
		}),
	}

	scanFlagSet := flag.NewFlagSet("scan", flag.ExitOnError)
	scanForce := scanFlagSet.Bool("force", false, "rescan before listing")
	scanJSON := scanFlagSet.Bool("json", false, "output in JSON format")
	scanWatch := scanFlagSet.Duration("watch", 0, "repeat the scan at this interval until interrupted")
	scanCmd := &ffcli.Command{
		Name:      "scan",
		ShortHelp: "List visible wifi networks",
		FlagSet:   scanFlagSet,
		Exec: withManager(func(ctx context.Context, args []string, m network.Manager) error {
			if *scanWatch > 0 {
				return runScanWatch(ctx, w, *scanWatch, *scanForce, *scanJSON, m)
			}
			return runScan(ctx, w, *scanForce, *scanJSON, m)
		}),
	}

	connectionsFlagSet := flag.NewFlagSet("connections", flag.ExitOnError)
	connectionsJSON := connectionsFlagSet.Bool("json", false, "output in JSON format")
	connectionsCmd := &ffcli.Command{
		Name:      "connections",
		ShortHelp: "List saved connection profiles",
		FlagSet:   connectionsFlagSet,
		Exec: withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runConnections(ctx, w, *connectionsJSON, m)
		}),
	}

	showFlagSet := flag.NewFlagSet("show", flag.ExitOnError)
	showSecret := showFlagSet.Bool("secret", false, "include the passphrase")
	showQR := showFlagSet.Bool("qr", false, "print a QR code to join the network")
	showJSON := showFlagSet.Bool("json", false, "output in JSON format")
	showCmd := &ffcli.Command{
		Name:       "show",
		ShortUsage: "nmctl show [-secret] [-qr] [-json] <uuid>",
		ShortHelp:  "Show a connection profile",
		FlagSet:    showFlagSet,
		Exec: needArgs(1, "show <uuid>", withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runShow(ctx, w, args[0], *showSecret, *showQR, *showJSON, m)
		})),
	}

	joinFlagSet := flag.NewFlagSet("join", flag.ExitOnError)
	joinPSK := joinFlagSet.String("psk", "", "passphrase for the network")
	joinCmd := &ffcli.Command{
		Name:       "join",
		ShortUsage: "nmctl join [-psk <passphrase>] <ssid>",
		ShortHelp:  "Join a wifi network, replacing its saved profiles",
		FlagSet:    joinFlagSet,
		Exec: needArgs(1, "join <ssid>", withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runJoin(ctx, w, args[0], *joinPSK, m)
		})),
	}

	var opts configureOptions
	configureFlagSet := flag.NewFlagSet("configure", flag.ExitOnError)
	configureIface := configureFlagSet.String("iface", "wifi", "interface to configure (wifi, ethernet)")
	configureFlagSet.StringVar(&opts.ID, "id", "", "uuid of the profile to modify; empty creates a wifi profile")
	configureFlagSet.StringVar(&opts.SSID, "ssid", "", "network name for a new wifi profile")
	configureFlagSet.StringVar(&opts.PSK, "psk", "", "passphrase")
	configureFlagSet.StringVar(&opts.Method, "method", "auto", "ipv4 method (auto, manual)")
	configureFlagSet.StringVar(&opts.Address, "ip", "", "manual address with prefix, e.g. 10.0.0.5/24")
	configureFlagSet.StringVar(&opts.Gateway, "gateway", "", "manual gateway")
	configureFlagSet.StringVar(&opts.DNS, "dns", "", "comma separated dns servers")
	configureFlagSet.BoolVar(&opts.AutoConnect, "autoconnect", true, "connect automatically")
	configureCmd := &ffcli.Command{
		Name:      "configure",
		ShortHelp: "Create or modify a connection profile and apply it",
		FlagSet:   configureFlagSet,
		Exec: withManager(func(ctx context.Context, args []string, m network.Manager) error {
			kind, err := parseKind(*configureIface)
			if err != nil {
				return err
			}
			opts.Kind = kind
			return runConfigure(ctx, w, opts, m)
		}),
	}

	connectCmd := &ffcli.Command{
		Name:       "connect",
		ShortUsage: "nmctl connect <wifi|ethernet>",
		ShortHelp:  "Activate the first autoconnect profile of an interface",
		Exec: needArgs(1, "connect <wifi|ethernet>", withManager(func(ctx context.Context, args []string, m network.Manager) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return runConnect(ctx, w, kind, m)
		})),
	}

	disconnectCmd := &ffcli.Command{
		Name:       "disconnect",
		ShortUsage: "nmctl disconnect <wifi|ethernet>",
		ShortHelp:  "Disconnect an interface",
		Exec: needArgs(1, "disconnect <wifi|ethernet>", withManager(func(ctx context.Context, args []string, m network.Manager) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			return runDisconnect(ctx, w, kind, m)
		})),
	}

	radioCmd := &ffcli.Command{
		Name:       "radio",
		ShortUsage: "nmctl radio <on|off>",
		ShortHelp:  "Switch the wifi radio on or off",
		Exec: needArgs(1, "radio <on|off>", withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runRadio(ctx, w, args[0], m)
		})),
	}

	resetCmd := &ffcli.Command{
		Name:      "reset",
		ShortHelp: "Power cycle the wifi radio",
		Exec: withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runReset(ctx, w, m)
		}),
	}

	deleteCmd := &ffcli.Command{
		Name:       "delete",
		ShortUsage: "nmctl delete <uuid>",
		ShortHelp:  "Delete a connection profile",
		Exec: needArgs(1, "delete <uuid>", withManager(func(ctx context.Context, args []string, m network.Manager) error {
			return runDelete(ctx, w, args[0], m)
		})),
	}

	return []*ffcli.Command{
		statusCmd, scanCmd, connectionsCmd, showCmd, joinCmd, configureCmd,
		connectCmd, disconnectCmd, radioCmd, resetCmd, deleteCmd,
	}
}

// main is the entry point of the application
func main() {
	var (
		rootFlagSet = flag.NewFlagSet("nmctl", flag.ExitOnError)
		configPath  = rootFlagSet.String("config", "", "path to config toml file (env: NMCTL_CONFIG)")
		themePath   = rootFlagSet.String("theme", "", "path to theme toml file (env: NMCTL_THEME)")
		logLevel    = rootFlagSet.String("log-level", "", "debug, info, warn or error (env: NMCTL_LOG_LEVEL)")
		version     = rootFlagSet.Bool("version", false, "display version")
	)

	var (
		cfg    config.Config
		logger *slog.Logger
		m      network.Manager
	)
	getManager := func(ctx context.Context) (network.Manager, error) {
		if m != nil {
			return m, nil
		}
		var err error
		m, err = GetBackend(ctx, cfg, logger)
		return m, err
	}

	root := &ffcli.Command{
		ShortUsage:  "nmctl [flags] <subcommand> [args...]",
		FlagSet:     rootFlagSet,
		Options:     []ff.Option{ff.WithEnvVarPrefix("NMCTL")},
		Subcommands: newCommands(os.Stdout, getManager),
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
	}

	// Parse root flags first so config, logging and theme are ready before
	// any subcommand runs. root.Parse will parse them again, but that's fine.
	err := ff.Parse(rootFlagSet, os.Args[1:],
		ff.WithEnvVarPrefix("NMCTL"),
		ff.WithIgnoreUndefined(true),
	)
	if err != nil {
		if err == flag.ErrHelp {
			root.FlagSet.Usage()
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *version {
		fmt.Println(Version)
		os.Exit(0)
	}

	cfg, err = config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if *logLevel == "" {
		*logLevel = cfg.LogLevel
	}
	level, err := nmlog.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level: %v\n", err)
		os.Exit(1)
	}
	logger = nmlog.Init(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *themePath == "" {
		*themePath = cfg.Theme
	}
	if err := theme.LoadThemeFile(*themePath); err != nil {
		fmt.Fprintf(os.Stderr, "error loading theme: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if err := root.Run(ctx); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.FlagSet.Usage()
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printRecentWarnings(os.Stderr, level)
		os.Exit(1)
	}
}

// printRecentWarnings shows retained warnings that the log level hid, since
// they usually explain the failure.
func printRecentWarnings(w io.Writer, level slog.Level) {
	if level <= slog.LevelWarn {
		return
	}
	for _, r := range nmlog.Logs() {
		if r.Level == slog.LevelWarn {
			fmt.Fprintf(w, "  warning: %s\n", r.Message)
		}
	}
}
