package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/garage/internal/cli"
	"github.com/theirongolddev/garage/internal/config"
	"github.com/theirongolddev/garage/internal/daemon"
	"github.com/theirongolddev/garage/internal/pipeline"
)

// daemonState is written next to the log while the daemon runs, so
// `status` and `stop` can find it.
type daemonState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Backend   string    `json:"backend"`
	StartedAt time.Time `json:"started_at"`
}

var (
	flagDaemonAddr     string
	flagDaemonInterval time.Duration
	flagDaemonDetach   bool
	flagDaemonChild    bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Poll the record store and serve the dashboard over HTTP/SSE",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running daemon and its last poll",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	daemonCmd.Flags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default daemon.addr)")
	daemonCmd.Flags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default daemon.interval_sec)")
	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run in the background, logging to "+daemonLogPath())
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func daemonStatePath() string { return filepath.Join(config.StateDir(), "garaged.json") }
func daemonLogPath() string   { return filepath.Join(config.StateDir(), "garaged.log") }

func daemonAddr() string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return cfg.Daemon.Addr
}

func daemonInterval() time.Duration {
	if flagDaemonInterval > 0 {
		return flagDaemonInterval
	}
	return time.Duration(cfg.Daemon.IntervalSec) * time.Second
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}
	if err := ensureDaemonNotRunning(); err != nil {
		return err
	}
	if flagDaemonDetach {
		return startDaemonDetached()
	}
	return runDaemonForeground()
}

// childArgs rebuilds the invocation for the background process with every
// setting resolved, so the child does not depend on the parent's flags.
func childArgs() []string {
	args := []string{"daemon", "--child",
		"--addr", daemonAddr(),
		"--interval", daemonInterval().String(),
		"--store", cfg.Store.Backend,
	}
	if flagConfig != "" {
		args = append(args, "--config", flagConfig)
	}
	if flagVerbose {
		args = append(args, "--verbose")
	}
	return args
}

func startDaemonDetached() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(config.StateDir(), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	logPath := daemonLogPath()
	//nolint:gosec // log path lives in the user's state directory
	logf, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	child := exec.Command(exe, childArgs()...) //nolint:gosec // re-executes this binary
	child.Stdout = logf
	child.Stderr = logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started garage daemon (pid %d) for the %s store\n", child.Process.Pid, cfg.Store.Backend)
	fmt.Printf("  Dashboard API: http://%s/v1/dashboard\n", daemonAddr())
	fmt.Printf("  Log: %s\n", logPath)
	return nil
}

func runDaemonForeground() error {
	// Open once; the store is reused by every poll.
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	addr := daemonAddr()
	if err := writeDaemonState(daemonState{
		PID:       os.Getpid(),
		Addr:      addr,
		Backend:   cfg.Store.Backend,
		StartedAt: time.Now(),
	}); err != nil {
		return err
	}
	defer func() { _ = os.Remove(daemonStatePath()) }()

	loadCfg := cfg
	svc := daemon.New(daemon.Config{
		Backend:  cfg.Store.Backend,
		Interval: daemonInterval(),
		Addr:     addr,
		Load: func(ctx context.Context, now time.Time) (*pipeline.LoadResult, error) {
			ctx, cancel := context.WithTimeout(ctx, loadTimeout)
			defer cancel()
			return pipeline.Load(ctx, st, loadCfg, now)
		},
	})

	fmt.Printf("  garage daemon listening on http://%s\n", addr)
	fmt.Printf("  Polling the %s store every %s\n", cfg.Store.Backend, daemonInterval())
	fmt.Println("  Stop with: garage daemon stop")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runDaemonStatus(_ *cobra.Command, _ []string) error {
	ds, err := readDaemonState()
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !processAlive(ds.PID) {
		fmt.Printf("  Daemon: stale state file (pid %d not alive)\n", ds.PID)
		return nil
	}

	fmt.Printf("  Daemon PID: %d (since %s)\n", ds.PID, ds.StartedAt.Local().Format("2006-01-02 15:04"))
	fmt.Printf("  Address: http://%s\n", ds.Addr)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ds.Addr + "/v1/status") //nolint:noctx // short status probe
	if err != nil {
		fmt.Printf("  API status: unreachable (%v)\n", err)
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Printf("  API status: HTTP %d\n", resp.StatusCode)
		return nil
	}

	var st daemon.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Printf("  API status: malformed response (%v)\n", err)
		return nil
	}

	fmt.Printf("  Backend: %s\n", st.Backend)
	if st.LastPollAt.IsZero() {
		fmt.Println("  Last poll: pending")
	} else {
		fmt.Printf("  Last poll: %s (%d so far)\n", st.LastPollAt.Local().Format(time.RFC3339), st.PollCount)
	}
	fmt.Printf("  Mileage: %s\n", cli.FormatKM(st.Summary.CurrentMileageKM))
	fmt.Printf("  Parts: %d overdue, %d warning, %d without record\n",
		st.Summary.Overdue, st.Summary.Warning, st.Summary.NoRecord)
	fmt.Printf("  Spend: fuel %s, maintenance %s\n",
		cli.FormatMoney(st.Summary.FuelSpend), cli.FormatMoney(st.Summary.MaintenanceSpend))
	fmt.Printf("  Events: %d (%d subscribers)\n", st.EventCount, st.SubscriberCount)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
	return nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	ds, err := readDaemonState()
	if err != nil {
		return errors.New("daemon is not running")
	}

	proc, err := os.FindProcess(ds.PID)
	if err != nil {
		return fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon process: %w", err)
	}

	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !processAlive(ds.PID) {
			_ = os.Remove(daemonStatePath())
			fmt.Printf("  Stopped daemon (pid %d)\n", ds.PID)
			return nil
		}
		time.Sleep(150 * time.Millisecond)
	}
	return fmt.Errorf("daemon (pid %d) did not exit in time", ds.PID)
}

// ensureDaemonNotRunning clears a state file left by a daemon that died.
func ensureDaemonNotRunning() error {
	ds, err := readDaemonState()
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err == nil && processAlive(ds.PID) {
		return fmt.Errorf("daemon already running (pid %d, http://%s)", ds.PID, ds.Addr)
	}
	_ = os.Remove(daemonStatePath())
	return nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func writeDaemonState(ds daemonState) error {
	if err := os.MkdirAll(config.StateDir(), 0o750); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(daemonStatePath(), append(data, '\n'), 0o600)
}

func readDaemonState() (daemonState, error) {
	var ds daemonState
	data, err := os.ReadFile(daemonStatePath())
	if err != nil {
		return ds, err
	}
	if err := json.Unmarshal(data, &ds); err != nil {
		return ds, fmt.Errorf("reading %s: %w", daemonStatePath(), err)
	}
	if ds.PID <= 0 {
		return ds, fmt.Errorf("invalid pid in %s", daemonStatePath())
	}
	return ds, nil
}
