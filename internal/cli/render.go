package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCommand(e *env) *cobra.Command {
	var tf targetFlags
	cmd := &cobra.Command{
		Use:       "render config|passwd",
		Short:     "Print a generated artifact without touching the target files",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"config", "passwd"},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := e.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			docs, err := e.controller(st).Documents(cmd.Context(), tf.targets(e.cfg))
			if err != nil {
				return err
			}
			out := docs.Config
			if args[0] == "passwd" {
				out = docs.Credentials
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}
	tf.register(cmd)
	return cmd
}
