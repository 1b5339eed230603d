package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/niravrohra/library-circulation/circulation"
)

var (
	borrowerSSN     string
	borrowerName    string
	borrowerAddress string
	borrowerPhone   string
)

var borrowerCmd = &cobra.Command{
	Use:   "borrower",
	Short: "Manage library card holders",
}

var borrowerCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new borrower",
	RunE:  runBorrowerCreate,
}

var borrowerRemoveCmd = &cobra.Command{
	Use:   "remove [card_id]",
	Short: "Remove a borrower without any loan history",
	Args:  cobra.ExactArgs(1),
	RunE:  runBorrowerRemove,
}

func init() {
	borrowerCreateCmd.Flags().StringVar(&borrowerSSN, "ssn", "", "social security number (required)")
	borrowerCreateCmd.Flags().StringVar(&borrowerName, "name", "", "full name (required)")
	borrowerCreateCmd.Flags().StringVar(&borrowerAddress, "address", "", "postal address (required)")
	borrowerCreateCmd.Flags().StringVar(&borrowerPhone, "phone", "", "phone number")

	borrowerCmd.AddCommand(borrowerCreateCmd)
	borrowerCmd.AddCommand(borrowerRemoveCmd)
	rootCmd.AddCommand(borrowerCmd)
}

func runBorrowerCreate(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var cardID int64
	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		var createErr error
		cardID, createErr = rt.engine.CreateBorrower(ctx, circulation.NewBorrower{
			SSN:     borrowerSSN,
			Name:    borrowerName,
			Address: borrowerAddress,
			Phone:   borrowerPhone,
		})

		return createErr
	})
	if err != nil {
		return err
	}

	cmd.Printf("Borrower registered with card id %d.\n", cardID)

	return nil
}

func runBorrowerRemove(cmd *cobra.Command, args []string) error {
	cardID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return err
	}

	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		return rt.engine.RemoveBorrower(ctx, cardID)
	})
	if err != nil {
		return err
	}

	cmd.Printf("Borrower %d removed.\n", cardID)

	return nil
}
