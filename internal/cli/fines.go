package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/niravrohra/library-circulation/circulation"
)

var (
	finesJSON    bool
	finesPayCard int64
)

var finesCmd = &cobra.Command{
	Use:   "fines",
	Short: "Assess, list, and settle fines",
}

var finesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outstanding fines per borrower",
	RunE:  runFinesList,
}

var finesRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute fines for all overdue loans",
	RunE:  runFinesRefresh,
}

var finesPayCmd = &cobra.Command{
	Use:   "pay",
	Short: "Settle a borrower's unpaid fines",
	RunE:  runFinesPay,
}

func init() {
	finesListCmd.Flags().BoolVar(&finesJSON, "json", false, "output results as JSON")
	finesPayCmd.Flags().Int64Var(&finesPayCard, "card", 0, "borrower card id (required)")

	finesCmd.AddCommand(finesListCmd)
	finesCmd.AddCommand(finesRefreshCmd)
	finesCmd.AddCommand(finesPayCmd)
	rootCmd.AddCommand(finesCmd)
}

func runFinesList(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var outstanding []circulation.OutstandingFine
	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		var listErr error
		outstanding, listErr = rt.engine.ListOutstandingFines(ctx)

		return listErr
	})
	if err != nil {
		return err
	}

	if finesJSON {
		return printJSON(cmd, outstanding)
	}

	if len(outstanding) == 0 {
		cmd.Println("No outstanding fines.")
		return nil
	}

	for _, fine := range outstanding {
		cmd.Printf("card %d %s: %s\n", fine.CardID, fine.Name, fine.Total.StringFixed(2))
	}

	return nil
}

func runFinesRefresh(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var changes []circulation.FineChange
	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		var refreshErr error
		changes, refreshErr = rt.engine.RefreshFines(ctx)

		return refreshErr
	})
	if err != nil {
		return err
	}

	for _, change := range changes {
		cmd.Printf("loan %d: %s %s\n", change.LoanID, change.Outcome, change.Amount.StringFixed(2))
	}
	cmd.Printf("Assessed %d loan(s).\n", len(changes))

	return nil
}

func runFinesPay(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		return rt.engine.PayFines(ctx, finesPayCard)
	})
	if err != nil {
		return err
	}

	cmd.Printf("Fines settled for card %d.\n", finesPayCard)

	return nil
}
