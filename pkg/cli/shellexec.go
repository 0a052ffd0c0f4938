package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gptscript-ai/cmd"
	"github.com/gptscript-ai/shellexec/pkg/config"
	"github.com/gptscript-ai/shellexec/pkg/executor"
	"github.com/gptscript-ai/shellexec/pkg/mvl"
	"github.com/gptscript-ai/shellexec/pkg/version"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var log = mvl.Package()

type ShellExec struct {
	Debug          bool   `usage:"Enable debug logging"`
	Quiet          bool   `usage:"Only log errors" short:"q"`
	ConfigFile     string `usage:"Config file (default: $XDG_CONFIG_HOME/shellexec/config.yaml)"`
	Timeout        string `usage:"Kill the command when it runs longer than this (default: 5s)" short:"t"`
	PollInterval   string `usage:"How often to check whether the command is still running (default: 100ms)"`
	WorkDir        string `usage:"Directory for marker files (default: OS temp directory)"`
	Shell          string `usage:"Shell used to launch the command (default: /bin/sh)"`
	MaxPidAttempts int    `usage:"Checks for the started process before giving up (default: 200)"`
	Stdin          bool   `usage:"Pass stdin through to the command"`
	NoStdout       bool   `usage:"Let the command write to stdout directly instead of capturing it"`
	NoStderr       bool   `usage:"Let the command write to stderr directly instead of capturing it"`
	Output         string `usage:"Save output to a file" short:"o"`
	Version        bool   `usage:"Print the version and exit"`
}

func New() *cobra.Command {
	return cmd.Command(&ShellExec{})
}

func (r *ShellExec) Customize(cmd *cobra.Command) {
	cmd.Use = version.ProgramName + " [flags] COMMAND [ARG...]"
	cmd.Short = "Run a shell command in the background and kill it when it times out"
	cmd.Long = `Run a shell command in the background and kill it when it times out.

The command runs detached in its own process group, so interrupting
shellexec (Ctrl-C) does not reach it. It keeps running until it exits or
its timeout kills it.`
	cmd.Flags().SetInterspersed(false)
}

func (r *ShellExec) Pre(cmd *cobra.Command, args []string) error {
	mvl.SetOutput(cmd.ErrOrStderr())
	if r.Debug {
		mvl.SetDebug()
	} else {
		mvl.SetSimpleFormat()
	}
	if !r.Quiet {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			r.Quiet = true
		}
	}
	if r.Quiet && !r.Debug {
		mvl.SetError()
	}
	return nil
}

func (r *ShellExec) Run(cmd *cobra.Command, args []string) error {
	if r.Version {
		fmt.Println(version.Get())
		return nil
	}

	if len(args) == 0 {
		return fmt.Errorf("command argument required")
	}

	cfg, err := config.Read(r.ConfigFile)
	if err != nil {
		return err
	}

	opts, err := r.options(cfg)
	if err != nil {
		return err
	}

	e := executor.New(strings.Join(args, " "), opts)
	out, err := e.Execute()
	if err != nil {
		var failed *executor.CommandFailedError
		if errors.As(err, &failed) {
			_, _ = fmt.Fprint(os.Stderr, failed.Stderr)
			return fmt.Errorf("command %q executed with failure", e.Command())
		}
		var timeout *executor.TimeoutError
		if errors.As(err, &timeout) {
			log.Errorf("killed process %d after %s", timeout.PID, e.Timer().Timeout())
		}
		return err
	}

	if r.Output != "" {
		if err := os.WriteFile(r.Output, []byte(out), 0644); err != nil {
			return err
		}
		log.Infof("wrote output to %s", r.Output)
		return nil
	}
	fmt.Print(out)
	return nil
}

// options merges flags over the config file. Anything left unset falls back
// to the executor defaults.
func (r *ShellExec) options(cfg *config.Config) (executor.Options, error) {
	timeout, err := parseDuration("timeout", r.Timeout, time.Duration(cfg.Timeout))
	if err != nil {
		return executor.Options{}, err
	}
	pollInterval, err := parseDuration("poll-interval", r.PollInterval, time.Duration(cfg.PollInterval))
	if err != nil {
		return executor.Options{}, err
	}

	opts := executor.Options{
		Timeout:        timeout,
		PollInterval:   pollInterval,
		WorkDir:        lo.Ternary(r.WorkDir != "", r.WorkDir, cfg.WorkDir),
		Shell:          lo.Ternary(r.Shell != "", r.Shell, cfg.Shell),
		MaxPIDAttempts: lo.Ternary(r.MaxPidAttempts > 0, r.MaxPidAttempts, cfg.MaxPIDAttempts),
		MarkerPrefix:   cfg.MarkerPrefix,
		Pipes: &executor.Pipes{
			Stdin:  r.Stdin,
			Stdout: !r.NoStdout,
			Stderr: !r.NoStderr,
		},
	}
	if r.Stdin {
		opts.Stdin = os.Stdin
	}

	log.Debugf("using config %s", cfg.GetFilename())
	return opts, nil
}

func parseDuration(flag, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", flag, value, err)
	}
	return d, nil
}
