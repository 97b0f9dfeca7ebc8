package main

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/bank-ingest/cmd/categorize"
	"fjacquet/bank-ingest/cmd/dedupe"
	"fjacquet/bank-ingest/cmd/detect"
	"fjacquet/bank-ingest/cmd/imports"
	"fjacquet/bank-ingest/cmd/ingest"
	"fjacquet/bank-ingest/cmd/root"
	"fjacquet/bank-ingest/cmd/rules"
	"fjacquet/bank-ingest/cmd/seed"
	"fjacquet/bank-ingest/cmd/worker"
	"fjacquet/bank-ingest/internal/config"

	"github.com/sirupsen/logrus"
)

func init() {
	// 1. Load environment variables silently first (no logging yet)
	_, _ = config.LoadEnv()

	// 2. Configure the global log level before anything logs
	configureLogLevelDirectly()

	// 3. Initialize root command and add all subcommands
	root.Init()
	root.Cmd.AddCommand(ingest.Cmd)
	root.Cmd.AddCommand(imports.Cmd)
	root.Cmd.AddCommand(dedupe.Cmd)
	root.Cmd.AddCommand(categorize.Cmd)
	root.Cmd.AddCommand(seed.Cmd)
	root.Cmd.AddCommand(rules.Cmd)
	root.Cmd.AddCommand(worker.Cmd)
	root.Cmd.AddCommand(detect.Cmd)
}

// configureLogLevelDirectly sets the global logrus level from LOG_LEVEL.
func configureLogLevelDirectly() {
	logLevelStr := os.Getenv("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}

	logLevel, err := logrus.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logrus.SetLevel(logLevel)
}

func main() {
	if err := root.Cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
