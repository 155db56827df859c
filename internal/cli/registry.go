package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/fornecedor/internal/app"
	"github.com/Additional-Code/fornecedor/internal/registry"
)

// defaultProbeCNPJ is Petrobras, a CNPJ that is always present in the registry.
const defaultProbeCNPJ = "00000000000191"

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Query the CNPJ registry",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "lookup [cnpj]",
		Short: "Look up a CNPJ and print the company data",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			document := defaultProbeCNPJ
			if len(args) == 1 {
				document = args[0]
			}

			var client *registry.Client
			opts := fx.Options(app.Base, registry.Module, fx.Populate(&client))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				return probe(ctx, cmd.OutOrStdout(), client, document)
			})
		},
	})
	return cmd
}

func probe(ctx context.Context, out io.Writer, client *registry.Client, document string) error {
	digits := registry.NormalizeDocument(document)
	fmt.Fprintf(out, "looking up CNPJ %s\n", digits)
	if !registry.ValidFormat(digits) {
		fmt.Fprintln(out, "warning: a CNPJ has 14 digits")
	}

	res := client.Lookup(ctx, document)
	if !res.Found() {
		return fmt.Errorf("lookup failed for %s: %w", digits, res.Cause)
	}

	c := res.Company
	fmt.Fprintln(out, "lookup succeeded")
	fmt.Fprintf(out, "legal name:  %s\n", orDash(c.Fields.LegalName))
	fmt.Fprintf(out, "trade name:  %s\n", orDash(c.Fields.TradeName))
	fmt.Fprintf(out, "city:        %s\n", orDash(c.Fields.City))
	fmt.Fprintf(out, "state:       %s\n", orDash(c.Fields.State))
	fmt.Fprintf(out, "status:      %s\n", orDash(c.Status))
	return nil
}

func orDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
