package cli

import (
	"github.com/spf13/cobra"
)

var initDrop bool

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the circulation schema",
	RunE:  runInitDB,
}

func init() {
	initdbCmd.Flags().BoolVar(&initDrop, "drop", false, "drop existing tables first")
	rootCmd.AddCommand(initdbCmd)
}

func runInitDB(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if initDrop {
		if err := rt.engine.DropSchema(cmd.Context()); err != nil {
			return err
		}
	}

	if err := rt.engine.CreateSchema(cmd.Context()); err != nil {
		return err
	}

	cmd.Println("Schema ready.")

	return nil
}
