package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"trackcheck/internal/expect"
	"trackcheck/internal/sheets"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage module expectation templates",
	}
	cmd.AddCommand(configLintCmd())
	cmd.AddCommand(configExportCmd())
	cmd.AddCommand(configImportCmd())
	return cmd
}

func configLintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lint",
		Short: "Validate every module template against the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			store := expect.NewStore(cfg.Templates.Dir)
			areas, err := store.Areas()
			if err != nil {
				return err
			}

			var checked, invalid int
			for _, area := range areas {
				names, err := store.Templates(area)
				if err != nil {
					return err
				}
				for _, name := range names {
					data, err := store.ReadRaw(area, name)
					if err != nil {
						return err
					}
					checked++
					if err := expect.Lint(data); err != nil {
						invalid++
						fmt.Printf("INVALID %s/%s: %v\n", area, name, err)
					}
				}
			}

			fmt.Printf("%d templates checked, %d invalid\n", checked, invalid)
			if invalid > 0 {
				return fmt.Errorf("%d invalid templates", invalid)
			}
			return nil
		},
	}
}

func configExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <workbook.xlsx>",
		Short: "Export all module templates to a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			store := expect.NewStore(cfg.Templates.Dir)
			if err := sheets.NewWorkbook(store, log).Export(args[0]); err != nil {
				return err
			}
			fmt.Printf("exported templates to %s\n", args[0])
			return nil
		},
	}
}

func configImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <workbook.xlsx>",
		Short: "Import module templates from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			defer log.Sync()

			store := expect.NewStore(cfg.Templates.Dir)
			if err := sheets.NewWorkbook(store, log).Import(args[0]); err != nil {
				return err
			}
			fmt.Printf("imported templates from %s\n", args[0])
			return nil
		},
	}
}
