package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/niravrohra/library-circulation/importer"
)

var (
	importBooksPath     string
	importBorrowersPath string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Reload the database from raw CSV exports",
	Long: `Normalizes a tab-separated catalog export and a comma-separated
patron export, then drops and fully reloads the database from them.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importBooksPath, "books", "books.csv", "tab-separated catalog export")
	importCmd.Flags().StringVar(&importBorrowersPath, "borrowers", "borrowers.csv", "comma-separated patron export")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	booksFile, err := os.Open(importBooksPath)
	if err != nil {
		return fmt.Errorf("opening catalog export: %w", err)
	}
	defer booksFile.Close()

	catalog, err := importer.NormalizeBooks(booksFile)
	if err != nil {
		return err
	}

	borrowersFile, err := os.Open(importBorrowersPath)
	if err != nil {
		return fmt.Errorf("opening patron export: %w", err)
	}
	defer borrowersFile.Close()

	borrowers, err := importer.NormalizeBorrowers(borrowersFile)
	if err != nil {
		return err
	}

	loader, err := importer.NewLoader(rt.db, rt.engine, importer.WithLoaderLogger(rt.logger))
	if err != nil {
		return err
	}

	report, err := loader.Load(cmd.Context(), catalog, borrowers)
	if err != nil {
		return err
	}

	cmd.Printf("Loaded %d books, %d authors, %d book-author links, %d borrowers.\n",
		report.Books, report.Authors, report.BookAuthors, report.Borrowers)

	return nil
}
