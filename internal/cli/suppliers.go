package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/Additional-Code/fornecedor/internal/app"
	"github.com/Additional-Code/fornecedor/internal/entity"
	service "github.com/Additional-Code/fornecedor/internal/service/supplier"
)

func newSuppliersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppliers",
		Short: "Inspect stored suppliers",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List suppliers by document type, city or state",
		RunE: func(cmd *cobra.Command, args []string) error {
			documentType, _ := cmd.Flags().GetString("type")
			city, _ := cmd.Flags().GetString("city")
			state, _ := cmd.Flags().GetString("state")
			page, _ := cmd.Flags().GetInt("page")

			var svc *service.Service
			opts := fx.Options(app.Core, fx.Populate(&svc))
			return runWithApp(cmd.Context(), opts, func(ctx context.Context) error {
				suppliers, err := listSuppliers(ctx, svc, documentType, city, state, page)
				if err != nil {
					return err
				}
				return printSuppliers(cmd.OutOrStdout(), suppliers)
			})
		},
	}
	list.Flags().String("type", "", "Only suppliers with this document type (cpf or cnpj)")
	list.Flags().String("city", "", "Only suppliers whose city contains this text")
	list.Flags().String("state", "", "Only suppliers in this state")
	list.Flags().Int("page", 1, "Page to print when no filter is given")
	list.MarkFlagsMutuallyExclusive("type", "city", "state")

	cmd.AddCommand(list)
	return cmd
}

func listSuppliers(ctx context.Context, svc *service.Service, documentType, city, state string, page int) ([]entity.Supplier, error) {
	switch {
	case documentType != "":
		return svc.FindByType(ctx, entity.DocumentType(documentType))
	case city != "":
		return svc.FindByCity(ctx, city)
	case state != "":
		return svc.FindByState(ctx, state)
	}
	result, err := svc.List(ctx, page)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func printSuppliers(out io.Writer, suppliers []entity.Supplier) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tDOCUMENT\tLEGAL NAME\tCITY\tSTATE")
	for _, s := range suppliers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, s.DocumentType, s.Document, s.LegalName, orDash(s.City), orDash(s.State))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d supplier(s)\n", len(suppliers))
	return err
}
