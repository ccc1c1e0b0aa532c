package main

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/emotion-ensemble/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "emotion-ensemble",
	Short: "Weighted ensemble voting over emotion classifiers",
	Long: `emotion-ensemble asks every configured emotion model (text, audio or video)
for a label and combines them with a weighted plurality vote.

Configuration is read from --config, or config/$CONFIG_ENV/config.yaml, or
./config.yaml. EMOTION_* environment variables override file values and
OPENAI_API_KEY may come from a .env file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(predictCmd, serveCmd, weightsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and the logger it describes. Invalid
// weights fail here, before any request is served.
func setup() (*cfg.Root, *logrus.Logger, error) {
	conf, err := cfg.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	return conf, newLogger(conf.Pipeline), nil
}

func newLogger(p cfg.Pipeline) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	if strings.EqualFold(p.LogFormat, "json") {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	lvl, err := logrus.ParseLevel(p.LogLevel)
	if err != nil {
		lvl = logrus.InfoLevel
		log.WithField("level", p.LogLevel).Warn("unknown log level, using info")
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	log.SetLevel(lvl)
	return log
}
