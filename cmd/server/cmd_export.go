package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/agenthands/personapanel/internal/core"
	"github.com/agenthands/personapanel/internal/export"
	"github.com/agenthands/personapanel/internal/templates"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <simulation-id>",
		Short: "Print a stored simulation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			cfg, notes, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.Logging.Level = "warn"
			logger, err := newLogger(cfg, notes)
			if err != nil {
				return err
			}
			defer logger.Sync()

			st, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			// export needs no LLM
			panel := core.NewPanel(st, nil, nil, cfg, logger)
			out, err := panel.ExportSimulation(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}

			output, _ := cmd.Flags().GetString("output")
			if output == "" {
				_, err = cmd.OutOrStdout().Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringP("format", "f", "markdown", "Output format: json, yaml, markdown or text")
	cmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func newTemplatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List built-in entity type templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := templates.All()
			if err != nil {
				return err
			}

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(all)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDIMENSIONS\tDESCRIPTION")
			for _, tpl := range all {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", tpl.ID, tpl.Name, len(tpl.Dimensions), tpl.Description)
			}
			return w.Flush()
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
