package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/hnrobert/ftpmgr/internal/deploy"
)

func newDeployCommand(e *env) *cobra.Command {
	var (
		tf   targetFlags
		opts deploy.Options
	)
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy ProFTPD configuration files to system directories",
		Long: `Render the ProFTPD configuration fragment and the AuthUserFile from the
database and write whichever differs from what is on disk. With --test the
daemon configuration is checked afterwards; with --restart the daemon is
restarted, but only if a file changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()
			say(out, "Generating configuration files...")
			res, err := e.controller(st).Deploy(cmd.Context(), tf.targets(e.cfg), opts)
			if res != nil {
				printResult(out, res)
			}
			return err
		},
	}
	tf.register(cmd)
	f := cmd.Flags()
	f.BoolVar(&opts.Restart, "restart", false, "restart ProFTPD after deploying (only if files changed)")
	f.BoolVar(&opts.Validate, "test", false, "test the ProFTPD configuration after deploying")
	f.BoolVar(&opts.DryRun, "dry-run", false, "show what would be done without making changes")
	f.BoolVar(&opts.Force, "force", false, "write even if content is unchanged")
	return cmd
}

// labels holds the lower and title case names used in deploy output.
var labels = map[deploy.TargetKind][2]string{
	deploy.KindConfig:      {"config", "Config"},
	deploy.KindCredentials: {"passwd", "Passwd"},
}

func label(k deploy.TargetKind) string { return labels[k][0] }

func title(k deploy.TargetKind) string { return labels[k][1] }

func printResult(w io.Writer, res *deploy.Result) {
	if res.DryRun {
		warn(w, "\n=== DRY RUN MODE ===\n")
		for _, t := range res.Targets {
			switch {
			case t.Err != nil:
				failure(w, "Cannot read %s: %s", t.Path, t.Error)
			case t.Changed:
				say(w, "Would write %s to: %s", label(t.Kind), t.Path)
			default:
				say(w, "%s unchanged: %s", title(t.Kind), t.Path)
			}
			if t.ModeDrift {
				warn(w, "Would reset permissions of %s to %#o", t.Path, t.Mode)
			}
		}
		if res.Documents != nil {
			say(w, "\n--- Config content ---")
			say(w, "%s", res.Documents.Config)
			say(w, "\n--- Passwd content ---")
			say(w, "%s", res.Documents.Credentials)
		}
		return
	}

	failed := false
	for _, t := range res.Targets {
		switch {
		case t.Err != nil:
			failed = true
			failure(w, "Failed to deploy %s: %s", label(t.Kind), t.Error)
		case t.Written:
			say(w, "Writing %s to: %s", label(t.Kind), t.Path)
		default:
			say(w, "%s unchanged: %s", title(t.Kind), t.Path)
		}
		if t.ModeDrift && t.Err == nil {
			warn(w, "Reset permissions of %s to %#o", t.Path, t.Mode)
		}
	}
	switch {
	case failed:
	case res.Changed:
		success(w, "Configuration files updated.")
	default:
		success(w, "No changes detected.")
	}

	if res.Validation.Requested {
		say(w, "Testing ProFTPD configuration...")
		if res.Validation.Passed {
			success(w, "Configuration test passed.")
		} else {
			failure(w, "Configuration test failed:\n%s", res.Validation.Output)
		}
	}

	switch res.Restart.Status {
	case deploy.RestartSucceeded:
		success(w, "ProFTPD service restarted.")
	case deploy.RestartFailed:
		failure(w, "Failed to restart ProFTPD:\n%s", res.Restart.Output)
	case deploy.RestartSkipped:
		say(w, "Skipping restart: %s.", res.Restart.Output)
	}
}
