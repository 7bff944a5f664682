package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/continuity/internal/service"
)

var (
	historyLimit      int
	validateThreshold float64
)

func fail(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
	os.Exit(1)
}

// withService loads config, builds the service and runs fn against it.
func withService(fn func(ctx context.Context, svc *service.Service) error) {
	cfg, err := loadConfig()
	if err != nil {
		fail(err)
	}
	obs := newObserver(cfg)
	defer obs.Close()

	svc, cleanup, err := newService(cfg, obs)
	if err != nil {
		fail(err)
	}
	defer cleanup()

	if err := fn(context.Background(), svc); err != nil {
		fail(err)
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects with saved state",
	Run: func(cmd *cobra.Command, args []string) {
		withService(func(ctx context.Context, svc *service.Service) error {
			summaries, err := svc.List(ctx)
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println(dimStyle.Render("no saved projects"))
				return nil
			}
			for _, s := range summaries {
				fmt.Println(titleStyle.Render(s.Name))
				fmt.Printf("  %s %s\n", labelStyle.Render("focus:"), s.Focus)
				fmt.Printf("  %s %s\n", labelStyle.Render("updated:"), s.LastUpdated.Format("2006-01-02 15:04"))
				if len(s.NextActions) > 0 {
					fmt.Printf("  %s %s\n", labelStyle.Render("next:"), strings.Join(s.NextActions, ", "))
				}
			}
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show [project]",
	Short: "Show the full saved state of a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withService(func(ctx context.Context, svc *service.Service) error {
			rec, recovered, err := svc.LoadOrRecover(ctx, args[0])
			if err != nil {
				return err
			}
			if recovered {
				fmt.Println(warnStyle.Render("current state was corrupt, showing newest valid backup"))
			}

			fmt.Println(titleStyle.Render(rec.Name))
			fmt.Printf("%s %s\n", labelStyle.Render("focus:"), rec.Focus)
			fmt.Printf("%s %s\n", labelStyle.Render("updated:"), rec.LastUpdated.Format("2006-01-02 15:04:05"))
			fmt.Printf("%s %s\n", labelStyle.Render("mode:"), rec.MergeModeUsed)
			printItems("decisions", rec.Decisions)
			printItems("files", rec.FilesTouched)
			printItems("next", rec.NextActions)
			if rec.Summary != "" {
				fmt.Printf("%s %s\n", labelStyle.Render("summary:"), rec.Summary)
			}
			return nil
		})
	},
}

func printItems(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Println(labelStyle.Render(label + ":"))
	for _, it := range items {
		fmt.Printf("  - %s\n", it)
	}
}

var summaryCmd = &cobra.Command{
	Use:   "summary [project]",
	Short: "Print the condensed one-line brief of a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withService(func(ctx context.Context, svc *service.Service) error {
			sum, err := svc.Summarize(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Println(titleStyle.Render(sum.Name))
			fmt.Println(sum.Brief)
			return nil
		})
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [name]",
	Short: "Check a proposed project name against existing ones",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withService(func(ctx context.Context, svc *service.Service) error {
			matches, err := svc.ValidateName(ctx, args[0], validateThreshold)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println(okStyle.Render("ok: ") + "no similar project names found")
				return nil
			}
			fmt.Println(warnStyle.Render("similar projects exist:"))
			for _, m := range matches {
				fmt.Printf("  %s (score %.2f)\n", m.Name, m.Score)
			}
			return nil
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history [project]",
	Short: "Show recent save and checkpoint events for a project",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withService(func(ctx context.Context, svc *service.Service) error {
			events, err := svc.History(ctx, args[0], historyLimit)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println(dimStyle.Render("no recorded events"))
				return nil
			}
			for _, ev := range events {
				line := fmt.Sprintf("%s  %-10s %s", ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.Operation, ev.MergeMode)
				if ev.Trigger != "" {
					line += "  " + dimStyle.Render(ev.Trigger)
				}
				fmt.Println(line)
			}
			return nil
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum events to show")
	validateCmd.Flags().Float64VarP(&validateThreshold, "threshold", "t", 0, "Similarity threshold (0 uses the configured default)")

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(summaryCmd)
	RootCmd.AddCommand(validateCmd)
	RootCmd.AddCommand(historyCmd)
}
