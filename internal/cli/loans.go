package cli

import (
	"context"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/niravrohra/library-circulation/circulation"
)

var (
	checkoutISBN string
	checkoutCard int64

	loansISBN     string
	loansCard     int64
	loansBorrower string
	loansJSON     bool
)

var checkoutCmd = &cobra.Command{
	Use:   "checkout",
	Short: "Lend a book to a borrower",
	RunE:  runCheckout,
}

var checkinCmd = &cobra.Command{
	Use:   "checkin [loan_id...]",
	Short: "Return one or more loans",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheckin,
}

var loansCmd = &cobra.Command{
	Use:   "loans",
	Short: "Find open loans by ISBN, card id, or borrower name",
	RunE:  runLoans,
}

func init() {
	checkoutCmd.Flags().StringVar(&checkoutISBN, "isbn", "", "ISBN to lend (required)")
	checkoutCmd.Flags().Int64Var(&checkoutCard, "card", 0, "borrower card id (required)")

	loansCmd.Flags().StringVar(&loansISBN, "isbn", "", "exact ISBN")
	loansCmd.Flags().Int64Var(&loansCard, "card", 0, "borrower card id")
	loansCmd.Flags().StringVar(&loansBorrower, "borrower", "", "borrower name substring")
	loansCmd.Flags().BoolVar(&loansJSON, "json", false, "output results as JSON")

	rootCmd.AddCommand(checkoutCmd)
	rootCmd.AddCommand(checkinCmd)
	rootCmd.AddCommand(loansCmd)
}

func runCheckout(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var loanID int64
	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		var checkoutErr error
		loanID, checkoutErr = rt.engine.Checkout(ctx, checkoutISBN, checkoutCard)

		return checkoutErr
	})
	if err != nil {
		return err
	}

	cmd.Printf("Checked out: loan id %d.\n", loanID)

	return nil
}

func runCheckin(cmd *cobra.Command, args []string) error {
	loanIDs := make([]int64, 0, len(args))
	for _, arg := range args {
		loanID, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return err
		}
		loanIDs = append(loanIDs, loanID)
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		return rt.engine.CheckinAll(ctx, loanIDs)
	})
	if err != nil {
		return err
	}

	cmd.Printf("Checked in %d loan(s).\n", len(loanIDs))

	return nil
}

func runLoans(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	filter := circulation.LoanFilter{
		ISBN:         loansISBN,
		CardID:       loansCard,
		BorrowerName: loansBorrower,
	}

	var loans []circulation.OpenLoan
	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		var findErr error
		loans, findErr = rt.engine.FindOpenLoans(ctx, filter)

		return findErr
	})
	if err != nil {
		return err
	}

	if loansJSON {
		return printJSON(cmd, loans)
	}

	if len(loans) == 0 {
		cmd.Println("No open loans match.")
		return nil
	}

	for _, loan := range loans {
		cmd.Printf("loan %d: %q (%s) to %s (card %d), due %s\n",
			loan.LoanID,
			loan.Title,
			loan.ISBN,
			loan.BorrowerName,
			loan.CardID,
			loan.DueDate.Format(time.DateOnly),
		)
	}

	return nil
}
