package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/upsurge/campaign-lab/internal/app"
	"github.com/upsurge/campaign-lab/internal/domain/campaign"
	"github.com/upsurge/campaign-lab/internal/domain/optimizer"
	"github.com/upsurge/campaign-lab/internal/domain/variant"
)

var winnerScope string

var optimizeCmd = &cobra.Command{
	Use:   "optimize <campaignID>",
	Short: "Run one optimizer pass over a campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runOptimize,
}

var scanCmd = &cobra.Command{
	Use:   "scan <campaignID>",
	Short: "Check deployed variants for underperformers and send alerts",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

var winnerCmd = &cobra.Command{
	Use:   "winner <campaignID>",
	Short: "Show the winner analysis without changing anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runWinner,
}

var updateStatusesCmd = &cobra.Command{
	Use:   "update-statuses <campaignID>",
	Short: "Mark the winner winning and the other sampled variants losing",
	Args:  cobra.ExactArgs(1),
	RunE:  runUpdateStatuses,
}

var rateLimitCmd = &cobra.Command{
	Use:   "rate-limit <campaignID>",
	Short: "Show whether a campaign may generate variants now",
	Args:  cobra.ExactArgs(1),
	RunE:  runRateLimit,
}

func init() {
	winnerCmd.Flags().StringVar(&winnerScope, "scope", "active", "variants to rank: active or testing")
	rootCmd.AddCommand(optimizeCmd, scanCmd, winnerCmd, updateStatusesCmd, rateLimitCmd)
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func runOptimize(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		result, err := a.Optimizer.Optimize(ctx, id, actingUser())
		if err != nil {
			return err
		}
		printOptimizeResult(os.Stdout, result)
		return nil
	})
}

func runScan(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		result, err := a.Optimizer.CheckUnderperformers(ctx, id)
		if err != nil {
			return err
		}
		printAlertResult(os.Stdout, result)
		return nil
	})
}

func runWinner(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		result, err := a.Variants.IdentifyWinner(ctx, id, variant.ParseScope(winnerScope))
		if err != nil {
			return err
		}
		printWinnerResult(os.Stdout, result)
		return nil
	})
}

func runUpdateStatuses(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		result, err := a.Variants.UpdateVariantStatuses(ctx, id)
		if err != nil {
			return err
		}
		printWinnerResult(os.Stdout, result)
		return nil
	})
}

func runRateLimit(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	return withApp(cmd, func(ctx context.Context, a *app.App) error {
		status, err := a.Campaigns.CanGenerateVariants(ctx, id)
		if err != nil {
			return err
		}
		printRateLimit(os.Stdout, status)
		return nil
	})
}

func printOptimizeResult(out io.Writer, r *optimizer.Result) {
	if r.Skipped {
		fmt.Fprintf(out, "Campaign %d: another optimizer pass is running, skipped\n", r.CampaignID)
		return
	}

	fmt.Fprintf(out, "Campaign %d: %d variant(s) changed\n\n", r.CampaignID, r.OptimizedCount)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tNAME\tSCORE\tACTION\tREASON")
	for _, a := range r.Actions {
		fmt.Fprintf(w, "%d\t%s\t%.1f\t%s\t%s\n", a.VariantID, a.VariantName, a.Score, a.Action, a.Reason)
	}
	w.Flush()
}

func printAlertResult(out io.Writer, r *optimizer.AlertResult) {
	fmt.Fprintf(out, "Campaign %d: %d underperforming, %d alerted, %d suppressed\n",
		r.CampaignID, r.Flagged, r.Alerted, r.Suppressed)
	for _, id := range r.FlaggedIDs {
		fmt.Fprintf(out, "  variant %d\n", id)
	}
}

func printWinnerResult(out io.Writer, r *variant.WinnerResult) {
	switch {
	case len(r.Variants) == 0:
		fmt.Fprintln(out, "No variants")
		return
	case !r.HasMinimumData:
		fmt.Fprintln(out, "Insufficient data: every variant needs the minimum impressions and clicks")
	case r.WinnerID == nil:
		fmt.Fprintln(out, "No clear winner yet")
	default:
		fmt.Fprintf(out, "Winner: variant %d\n", *r.WinnerID)
	}
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tNAME\tSTATUS\tIMPRESSIONS\tCLICKS\tCONVERSIONS\tCTR\tCVR\tCPC\tSCORE")
	for _, sv := range r.Variants {
		v, m := sv.Variant, sv.Metrics
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%.2f\t%.2f\t%s\t%.1f\n",
			v.ID, v.Name, v.Status, v.Impressions, v.Clicks, v.Conversions,
			m.CTR, m.ConversionRate, formatCost(m.CostPerConversion), m.Score)
	}
	w.Flush()
}

func printRateLimit(out io.Writer, s campaign.RateLimitStatus) {
	if s.Allowed {
		fmt.Fprintln(out, "Generation allowed")
		return
	}
	fmt.Fprintf(out, "Generation denied (%s): %s\n", s.Code, s.Reason)
	if s.NextAllowedAt != nil {
		fmt.Fprintf(out, "Next allowed at %s\n", s.NextAllowedAt.UTC().Format(time.RFC3339))
	}
}

func formatCost(c float64) string {
	if math.IsInf(c, 1) {
		return "-"
	}
	return strconv.FormatFloat(c, 'f', 2, 64)
}
