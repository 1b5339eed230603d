package cli

import (
	"context"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/niravrohra/library-circulation/circulation"
)

var searchJSON bool

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog by ISBN, title, or author",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var results []circulation.BookSummary
	err = circulation.RetryWithBackoff(cmd.Context(), func(ctx context.Context) error {
		var searchErr error
		results, searchErr = rt.engine.SearchBooks(ctx, args[0])

		return searchErr
	})
	if err != nil {
		return err
	}

	if searchJSON {
		return printJSON(cmd, results)
	}

	if len(results) == 0 {
		cmd.Println("No matching books.")
		return nil
	}

	for _, book := range results {
		if book.Authors != "" {
			cmd.Printf("[%s] %-4s %s - %s\n", book.ISBN, book.Status, book.Title, book.Authors)
		} else {
			cmd.Printf("[%s] %-4s %s\n", book.ISBN, book.Status, book.Title)
		}
	}

	return nil
}

func printJSON(cmd *cobra.Command, data any) error {
	out, err := jsoniter.ConfigFastest.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(out))

	return nil
}
