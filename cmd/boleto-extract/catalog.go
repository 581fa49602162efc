package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/alisio/boleto-extract/internal/catalog"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect payee catalogs",
	}
	cmd.AddCommand(catalogCheckCmd())
	return cmd
}

func catalogCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Validate a payee catalog CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cat, err := catalog.Load(args[0], slog.Default())
			if err != nil {
				return err
			}
			fmt.Printf("Catalog OK: %d payees\n", len(cat.Entries))
			for _, e := range cat.Entries {
				fmt.Printf("- %s (%d codes)\n", e.Label, len(e.Codes))
			}
			return nil
		},
	}
}
