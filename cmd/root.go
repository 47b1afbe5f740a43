package cmd

import (
	"errors"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/cv-screener/internal/config"
)

const (
	app = "cv-screener"
)

var (
	// Used for flags.
	cfgFile string
	envFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "cv-screener extracts candidate records from CV files with Gemini and stores them in Notion",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := config.SetDefaults(viper.GetViper()); err != nil {
		log.Fatalf("setting config defaults: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is cv-screener.yaml in current directory)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "a dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// Variables from the dotenv file must be in the environment before viper reads it.
	if err := config.LoadDotEnv(envFile); err != nil {
		log.Fatal(err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, everything can come from the environment.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}
