package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/santiagomed/launchpad/config"
	"github.com/santiagomed/launchpad/logger"
	"github.com/santiagomed/launchpad/price"
)

var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Print the current SOL/USD price",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("error parsing flags: %w", err)
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		feed := price.NewFeed(cfg.Price, logger.GetLogger())
		defer feed.Close()
		return printPrice(cmd.Context(), feed, cmd.OutOrStdout())
	},
}

func printPrice(ctx context.Context, feed *price.Feed, w io.Writer) error {
	q, err := feed.Refresh(ctx)
	line := fmt.Sprintf("SOL/USD $%s", humanize.CommafWithDigits(q.USD, 2))
	if err != nil {
		line += faintStyle.Render(fmt.Sprintf(" (fallback, %v)", err))
	}
	_, werr := fmt.Fprintln(w, line)
	return werr
}
