package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai/gemini"
	"github.com/spigell/cv-screener/internal/config"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/notion"
	"github.com/spigell/cv-screener/internal/pipeline"
)

const keyCheckTimeout = 15 * time.Second

// flagBinding maps a command line flag to a config key.
type flagBinding struct {
	flag string
	key  string
}

var clientFlags = []flagBinding{
	{"gemini-api-key", "gemini.api-key"},
	{"gemini-api-key-file", "gemini.api-key-file"},
	{"gemini-model", "gemini.model"},
	{"temperature", "gemini.temperature"},
	{"notion-api-key", "notion.api-key"},
	{"notion-api-key-file", "notion.api-key-file"},
	{"notion-database-id", "notion.database-id"},
	{"gemini-concurrency", "concurrency.gemini"},
	{"notion-concurrency", "concurrency.notion"},
	{"timezone", "timezone"},
}

func addClientFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("gemini-api-key", "", "Gemini API key (GEMINI_API_KEY)")
	f.String("gemini-api-key-file", "", "file holding the Gemini API key")
	f.String("gemini-model", "", "Gemini model name (GEMINI_MODEL)")
	f.Float32("temperature", 0, "sampling temperature between 0 and 2 (TEMPERATURE)")
	f.String("notion-api-key", "", "Notion integration token (NOTION_API_KEY)")
	f.String("notion-api-key-file", "", "file holding the Notion integration token")
	f.String("notion-database-id", "", "Notion database id (NOTION_DATABASE_ID)")
	f.Int("gemini-concurrency", 0, "maximum concurrent Gemini calls (MAX_GEMINI_CONCURRENT)")
	f.Int("notion-concurrency", 0, "maximum concurrent Notion writes (MAX_NOTION_CONCURRENT)")
	f.String("timezone", "", "time zone of the processing timestamps (TIMEZONE)")
}

// bindFlags binds the flags of the running command, so commands sharing a
// flag name do not override each other.
func bindFlags(cmd *cobra.Command, extra ...flagBinding) error {
	for _, b := range append(clientFlags, extra...) {
		flag := cmd.Flags().Lookup(b.flag)
		if flag == nil {
			continue
		}
		if err := viper.BindPFlag(b.key, flag); err != nil {
			return fmt.Errorf("binding --%s flag: %w", b.flag, err)
		}
	}
	return nil
}

func newLogger() *zap.Logger {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	return l
}

// services are the clients shared by the process and watch commands.
type services struct {
	cfg    *config.Config
	store  *notion.Client
	runner *pipeline.Runner
}

// setup loads the configuration and checks both remote services before any
// item is processed.
func setup(ctx context.Context, log *zap.Logger) (*services, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	log.Debug("starting with config",
		zap.String("model", cfg.Gemini.Model),
		zap.Float32("temperature", cfg.Gemini.Temperature),
		zap.Int("gemini_concurrency", cfg.Concurrency.Gemini),
		zap.Int("notion_concurrency", cfg.Concurrency.Notion),
		zap.String("timezone", cfg.Timezone),
	)

	keyCtx, cancel := context.WithTimeout(ctx, keyCheckTimeout)
	defer cancel()
	if err := gemini.VerifyKey(keyCtx, http.DefaultClient, cfg.Gemini.APIKey); err != nil {
		return nil, fmt.Errorf("verifying gemini api key: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Temperature)
	if err != nil {
		return nil, err
	}
	extractor := gemini.NewExtractor(generator, log, cfg.Gemini.MaxLogLength)

	store := notion.New(ctx, log, cfg.Notion.APIKey, cfg.Notion.DatabaseID, cfg.Location())
	if err := store.Configure(ctx); err != nil {
		return nil, fmt.Errorf("connecting to notion: %w", err)
	}

	runner, err := pipeline.New(pipeline.Config{
		ExtractorConcurrency: cfg.Concurrency.Gemini,
		StoreConcurrency:     cfg.Concurrency.Notion,
	}, pipeline.Deps{
		Extract: extract.Text,
		AI:      extractor,
		Store:   store,
		Logger:  log,
	})
	if err != nil {
		return nil, err
	}

	log.Info("services are ready",
		zap.String(logger.FieldModel, generator.Model()),
		zap.String("database", store.DatabaseURL()),
	)

	return &services{cfg: cfg, store: store, runner: runner}, nil
}

func printSummary(report pipeline.Report, databaseURL string) {
	for _, line := range report.Summary(databaseURL) {
		fmt.Println(line)
	}
}
