package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/proxprefetch/pkg/inject"
)

// scriptCommand prints the tracker script for the resolved options.
func (c *CLI) scriptCommand() *cobra.Command {
	var (
		options optionFlags
		output  string
	)

	cmd := &cobra.Command{
		Use:   "script",
		Short: "Print the browser tracker script",
		Long: `Print the <script> block inject would insert, for pasting into a template
that proxprefetch does not rewrite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := options.load(cmd, ".")
			if err != nil {
				return err
			}
			v, _ := os.LookupEnv(inject.DebugEnv)
			cfg, err := inject.Resolve(opts, v == "true")
			if err != nil {
				return err
			}
			script, err := inject.Script(cfg.Config)
			if err != nil {
				return err
			}

			if output == "" {
				fmt.Fprintln(cmd.OutOrStdout(), script)
				return nil
			}
			if err := os.WriteFile(output, []byte(script+"\n"), 0644); err != nil {
				return err
			}
			printSuccess("Script written")
			printFile(output)
			return nil
		},
	}

	options.register(cmd, false)
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")

	return cmd
}
