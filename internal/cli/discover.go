package cli

import (
	"github.com/spf13/cobra"

	"github.com/hnrobert/ftpmgr/internal/discovery"
	"github.com/hnrobert/ftpmgr/internal/model"
)

func newDiscoverCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List candidate folders and system users on the host",
	}

	var (
		base     string
		exclude  string
		maxDepth int
	)
	dirs := &cobra.Command{
		Use:   "dirs",
		Short: "List directories below a base directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			depth := maxDepth
			if depth <= 0 {
				depth = e.cfg.Discovery.MaxDepth
			}
			p := model.Preferences{BaseDir: base, ExcludeDirs: exclude}
			found, err := discovery.ListDirectories(p.BaseDir, p.ExcludeList(), depth)
			if err != nil {
				return err
			}
			for _, d := range found {
				say(cmd.OutOrStdout(), "%s", d)
			}
			return nil
		},
	}
	dirs.Flags().StringVar(&base, "base", model.DefaultBaseDir, "base directory to scan")
	dirs.Flags().StringVar(&exclude, "exclude", model.DefaultExcludeDirs, "comma separated substrings; matching paths are skipped")
	dirs.Flags().IntVar(&maxDepth, "max-depth", 0, "number of levels to descend (default from config)")

	var pattern, identity string
	users := &cobra.Command{
		Use:   "users",
		Short: "List identity database users whose name matches a pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if identity == "" {
				identity = e.cfg.Discovery.IdentityFile
			}
			found, err := discovery.ListIdentities(identity, pattern)
			if err != nil {
				return err
			}
			for _, u := range found {
				say(cmd.OutOrStdout(), "%s", u)
			}
			return nil
		},
	}
	users.Flags().StringVar(&pattern, "pattern", model.DefaultSystemUserRegexp, "regular expression the whole name must match")
	users.Flags().StringVar(&identity, "identity-file", "", "passwd(5) file to read (default from config)")

	cmd.AddCommand(dirs, users)
	return cmd
}
