package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fundascout/fundascout/internal/collector"
	"github.com/fundascout/fundascout/internal/scores"
	"github.com/fundascout/fundascout/pkg/funda"
	"github.com/fundascout/fundascout/pkg/maps"
	"github.com/fundascout/fundascout/pkg/notion"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full search-and-upload cycle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		table, err := scores.LoadFile(ctx, cfg.Scores.Path)
		if err != nil {
			return eris.Wrap(err, "load score table")
		}
		zap.L().Info("score table loaded",
			zap.Int("year", table.Year()),
			zap.Int("prefixes", table.Len()),
		)

		fundaClient := funda.NewClient(funda.SearchParams{
			WantTo:       cfg.Funda.WantTo,
			MinPrice:     cfg.Funda.MinPrice,
			MaxPrice:     cfg.Funda.MaxPrice,
			DaysSince:    cfg.Funda.DaysSince,
			PropertyType: cfg.Funda.PropertyType,
			PageStart:    cfg.Funda.PageStart,
			PageCount:    cfg.Funda.PageCount,
		})
		mapsClient := maps.NewClient(cfg.Google.APIKey, maps.WithMode(cfg.Google.Mode))
		store := notion.NewHouseStore(notion.NewClient(cfg.Notion.Token), cfg.Notion.DatabaseID)

		c := collector.New(fundaClient, mapsClient, table, store, cfg.Search.OfficeS, cfg.Search.OfficeV)

		summary, err := c.Run(ctx, cfg.Search.Cities)
		if err != nil {
			return eris.Wrap(err, "collector run")
		}

		zap.L().Info("run complete",
			zap.Int("found", summary.Found),
			zap.Int("created", summary.Created),
			zap.Int("skipped", summary.Skipped),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
