package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hnrobert/ftpmgr/internal/auth"
	"github.com/hnrobert/ftpmgr/internal/config"
	"github.com/hnrobert/ftpmgr/internal/daemonctl"
	"github.com/hnrobert/ftpmgr/internal/deploy"
	"github.com/hnrobert/ftpmgr/internal/hostfs"
	"github.com/hnrobert/ftpmgr/internal/logger"
	"github.com/hnrobert/ftpmgr/internal/render"
	"github.com/hnrobert/ftpmgr/internal/store"
)

var version = "dev" // set by the linker

// env carries what the persistent pre-run resolved for the subcommands.
type env struct {
	configPath string
	verbose    bool
	cfg        config.Config
}

// NewRootCommand builds the full command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "ftpmgr",
		Short:         "Manage ProFTPD virtual users, shared folders and their deployment",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init-config" {
				return nil
			}
			logger.SetDebug(e.verbose)
			cfg, err := config.Load(cmd, e.configPath)
			if err != nil {
				return err
			}
			e.cfg = cfg
			hostfs.SetRoot(cfg.HostRoot)
			logger.Debug("host root %s, database %s", hostfs.Root(), cfg.Database.Type)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&e.configPath, "config", "c", "", "config file (default: ./ftpmgr.yaml, user config dir, /etc/ftpmgr)")
	pf.BoolVarP(&e.verbose, "verbose", "v", false, "enable debug logging")
	pf.String("host-root", "", "directory the host filesystem is mounted at")
	pf.String("db-type", "", "database type: sqlite, postgres or mysql")
	pf.String("db-dsn", "", "database DSN")

	root.AddCommand(
		newServeCommand(e),
		newDeployCommand(e),
		newRenderCommand(e),
		newDiscoverCommand(e),
		newUserCommand(e),
		newHashCommand(e),
		newInitConfigCommand(),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("Error: ")+err.Error())
		if errors.Is(err, config.ErrInvalid) {
			return 2
		}
		return 1
	}
	return 0
}

func (e *env) openStore(ctx context.Context) (*store.Store, error) {
	st, err := store.Open(ctx, e.cfg.Database.Type, e.cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", e.cfg.Database.Type, err)
	}
	return st, nil
}

func (e *env) renderOptions() render.Options {
	p := e.cfg.Proftpd
	return render.Options{
		DefaultUID: p.DefaultUID,
		DefaultGID: p.DefaultGID,
		Home:       p.Home,
		Shell:      p.Shell,
	}
}

func (e *env) controller(src deploy.SnapshotSource) *deploy.Controller {
	p := e.cfg.Proftpd
	ctl := deploy.New(src, daemonctl.New(p.CommandTimeout), e.renderOptions())
	ctl.IdentityFile = e.cfg.Discovery.IdentityFile
	ctl.ValidateCmd = daemonctl.Split(p.ValidateCmd)
	ctl.RestartCmd = daemonctl.Split(p.RestartCmd)
	ctl.LockFile = p.LockFile
	return ctl
}

func (e *env) hasher() (auth.Hasher, error) {
	return auth.NewHasher(e.cfg.Hash.Algorithm)
}

// targetFlags are shared by deploy and render.
type targetFlags struct {
	configDir  string
	configFile string
	passwdFile string
}

func (f *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configDir, "config-dir", "", "ProFTPD configuration directory (default from config, "+hostfs.ProftpdDir+")")
	cmd.Flags().StringVar(&f.configFile, "config-file", "", "config file path relative to config-dir (default "+hostfs.ProftpdConfigRel+")")
	cmd.Flags().StringVar(&f.passwdFile, "passwd-file", "", "password file path relative to config-dir (default "+hostfs.ProftpdPasswdName+")")
}

func (f *targetFlags) targets(cfg config.Config) deploy.Targets {
	dir, file, passwd := cfg.Proftpd.ConfigDir, cfg.Proftpd.ConfigFile, cfg.Proftpd.PasswdFile
	if f.configDir != "" {
		dir = f.configDir
	}
	if f.configFile != "" {
		file = f.configFile
	}
	if f.passwdFile != "" {
		passwd = f.passwdFile
	}
	return deploy.NewTargets(dir, file, passwd)
}
