package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/infrastructure/config"
	"github.com/vsinha/packplan/pkg/infrastructure/events"
	"github.com/vsinha/packplan/pkg/infrastructure/logging"
	"github.com/vsinha/packplan/pkg/infrastructure/storage"
	"github.com/vsinha/packplan/pkg/interfaces/cli/commands"
)

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	if len(os.Args) < 2 || (os.Args[1] != "plan" && os.Args[1] != "weighing") {
		fmt.Fprintf(os.Stderr, "usage: packplan <plan|weighing> [options]\n")
		os.Exit(2)
	}
	sub := os.Args[1]

	fs := flag.NewFlagSet(sub, flag.ExitOnError)
	var (
		configFile   = fs.String("config", "", "Path to config file")
		planFile     = fs.String("plan", "", "Path to plan CSV file")
		weighingFile = fs.String("weighing", "", "Path to weighing CSV file")
		catalogFile  = fs.String("catalog", "", "Path to catalog CSV file")
		matchFile    = fs.String("match", "", "Path to shipment match workbook")
		matchGood    = fs.Int64("good", 0, "Good id of the shipment match candidates")
		outputDir    = fs.String("output", "", "Output directory for results (optional)")
		format       = fs.String("format", "text", "Output format: text, json, xlsx")
		verbose      = fs.Bool("verbose", false, "Enable verbose output")
		submit       = fs.Bool("submit", false, "Store the result when every gate passes")
		help         = fs.Bool("help", false, "Show help message")
	)
	_ = fs.Parse(os.Args[2:])

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	terms, err := cfg.Contract.Terms()
	if err != nil {
		logger.Fatal("invalid contract config", zap.Error(err))
	}

	ctx := context.Background()
	repo, closeRepo, err := storage.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to open store", zap.Error(err))
	}
	defer closeRepo()

	base := session.Config{
		Terms:          terms,
		Unit:           cfg.Engine.Unit(),
		GracePeriod:    cfg.Engine.GracePeriod,
		BatchThreshold: cfg.Engine.BatchThreshold,
		Logger:         logger,
		Publisher:      events.NewInMemoryEventStore(logger),
	}
	cmdConfig := commands.Config{
		PlanFile:     *planFile,
		WeighingFile: *weighingFile,
		CatalogFile:  *catalogFile,
		MatchFile:    *matchFile,
		MatchGoodID:  *matchGood,
		OutputDir:    *outputDir,
		Format:       *format,
		Verbose:      *verbose,
		Submit:       *submit,
		Help:         *help,
	}

	var cmd command
	if sub == "plan" {
		cmd = commands.NewPlanCommand(cmdConfig, base, repo)
	} else {
		cmd = commands.NewWeighingCommand(cmdConfig, base, repo)
	}

	if err := cmd.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		closeRepo()
		os.Exit(1)
	}
}
