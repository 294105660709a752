package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/failfix/internal/config"
	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

func newCatalogCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the remediation catalog",
		Long: `List every remediation descriptor, including overrides from
remediation.catalog_file (FAILFIX_CATALOG_FILE).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			catalog, err := remediation.Load(cfg.Remediation.CatalogFile)
			if err != nil {
				return fmt.Errorf("loading remediation catalog: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(catalog.Descriptors())
			}

			var b strings.Builder
			for _, d := range catalog.Descriptors() {
				mode := "manual"
				if d.AutoFixable {
					mode = "auto-fix"
				}
				fmt.Fprintf(&b, "%s (%s): %s\n", d.Category, mode, d.Title)
				for _, c := range d.Commands {
					fmt.Fprintf(&b, "    $ %s\n", c)
				}
			}
			_, err = fmt.Fprint(out, b.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print descriptors as JSON")
	return cmd
}
