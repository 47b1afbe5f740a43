package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/export"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/scanner"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var processCmd = &cobra.Command{
	Use:   "process <jobs-folder>",
	Short: "Process every new CV under the jobs folder",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		process(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	addClientFlags(processCmd)
	processCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before processing")
	processCmd.Flags().StringP("output", "o", "", "write successful candidates to a .csv or .xlsx file")
	processCmd.Flags().String("sheet-id", "", "append successful candidates to this Google spreadsheet")
	processCmd.Flags().String("sheets-credentials", "", "service account credentials file for Google Sheets")
	processCmd.Flags().String("sheet-name", "", "sheet to append candidates to")
}

func process(cmd *cobra.Command, root string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	if err := bindFlags(cmd,
		flagBinding{"output", "export.output"},
		flagBinding{"sheet-id", "export.sheet-id"},
		flagBinding{"sheets-credentials", "export.sheets-credentials"},
		flagBinding{"sheet-name", "export.sheet-name"},
	); err != nil {
		log.Fatal("binding flags", zap.Error(err))
	}

	log.Info("starting the cv-screener", zap.String("version", version))

	svc, err := setup(ctx, log)
	if err != nil {
		log.Fatal("preparing services", zap.Error(err))
	}

	sc := scanner.New(svc.runner, extract.Text, log)

	plan, err := sc.Plan(root)
	if err != nil {
		log.Fatal("scanning the jobs folder", zap.Error(err))
	}

	log.Info("found candidates",
		zap.Int("positions", len(plan.Positions)),
		zap.Int("total", plan.Total()),
		zap.Int("pending", plan.Pending()),
		zap.Int("skipped_positions", len(plan.Skipped)),
	)

	if plan.Pending() == 0 {
		log.Info("exiting", zap.String("reason", "no new CV files found"))
		return
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Process %d new CV files?", plan.Pending()),
			Items: []string{PromptYes, PromptNo},
		}
		_, action, err := prompt.Run()
		if err != nil {
			log.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			log.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	report := sc.Run(ctx, plan)
	printSummary(report, svc.store.DatabaseURL())

	if err := exportCandidates(ctx, svc, report, log); err != nil {
		log.Error("exporting candidates", zap.Error(err))
		os.Exit(1)
	}

	if report.HasFailures() {
		os.Exit(1)
	}
}

func exportCandidates(ctx context.Context, svc *services, report pipeline.Report, log *zap.Logger) error {
	out := svc.cfg.Export
	if len(report.Candidates) == 0 {
		if out.Output != "" || out.SheetID != "" {
			log.Info("skipping export", zap.String("reason", "no successful candidates"))
		}
		return nil
	}

	if out.Output != "" {
		if err := export.ToFile(out.Output, report.Candidates); err != nil {
			return err
		}
		log.Info("candidates written to file",
			zap.String("filename", out.Output),
			zap.Int("count", len(report.Candidates)),
		)
	}

	if out.SheetID != "" {
		sheets, err := export.NewSheets(ctx, out.SheetsCredentials, out.SheetName)
		if err != nil {
			return err
		}
		if err := sheets.Append(ctx, out.SheetID, report.Candidates); err != nil {
			return err
		}
		log.Info("candidates appended to spreadsheet",
			zap.String("spreadsheet", out.SheetID),
			zap.Int("count", len(report.Candidates)),
		)
	}

	return nil
}
