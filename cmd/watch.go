package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/scanner"
	"github.com/spigell/cv-screener/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch <jobs-folder>",
	Short: "Process the jobs folder, then every CV file added to it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		watch(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	addClientFlags(watchCmd)
	watchCmd.Flags().Duration("debounce", 0, "delay between a new file event and reading the file")
	watchCmd.Flags().Duration("item-timeout", 0, "maximum processing time of one watched file")
}

func watch(cmd *cobra.Command, root string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger()

	if err := bindFlags(cmd,
		flagBinding{"debounce", "watch.debounce"},
		flagBinding{"item-timeout", "watch.item-timeout"},
	); err != nil {
		log.Fatal("binding flags", zap.Error(err))
	}

	log.Info("starting the cv-screener watcher", zap.String("version", version))

	svc, err := setup(ctx, log)
	if err != nil {
		log.Fatal("preparing services", zap.Error(err))
	}

	initial, err := scanner.New(svc.runner, extract.Text, log).Scan(ctx, root)
	if err != nil {
		log.Fatal("scanning the jobs folder", zap.Error(err))
	}
	printSummary(initial, svc.store.DatabaseURL())

	w, err := watcher.New(watcher.Config{
		Root:     root,
		Debounce: svc.cfg.Watch.Debounce,
		Timeout:  svc.cfg.Watch.ItemTimeout,
	}, watcher.Deps{
		Runner:  svc.runner,
		Extract: extract.Text,
		Logger:  log,
		OnOutcome: func(o pipeline.Outcome) {
			if o.Status == pipeline.StatusFailed {
				log.Warn("watched file failed", append(logger.ItemFields(o.Position, o.FileName), zap.Error(o.Err))...)
			}
		},
	})
	if err != nil {
		log.Fatal("creating the watcher", zap.Error(err))
	}

	if err := w.Run(ctx); err != nil {
		log.Fatal("watching the jobs folder", zap.Error(err))
	}

	report := w.Report()
	if report.Total > 0 {
		printSummary(report, svc.store.DatabaseURL())
	}
}
