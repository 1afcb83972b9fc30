package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/fundascout/fundascout/internal/scores"
)

var scoreCmd = &cobra.Command{
	Use:   "score <postal-code>",
	Short: "Look up the life level score for a postal code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := scores.LoadFile(cmd.Context(), cfg.Scores.Path)
		if err != nil {
			return eris.Wrap(err, "load score table")
		}

		score, err := table.Score(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("%s (dataset %d): %.2f\n", args[0], table.Year(), score)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}
