package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/paveg/roadsafety"
	"github.com/paveg/roadsafety/internal/config"
	"github.com/paveg/roadsafety/internal/logging"
	"github.com/paveg/roadsafety/internal/monitoring"
	"github.com/paveg/roadsafety/internal/version"
	"go.uber.org/zap"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Road Accident Severity Pipeline (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: roadsafety [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tLoad settings from a JSON or YAML file\n")
	fmt.Fprintf(os.Stderr, "  --out DIR\n\t\tDirectory for rendered figures (default: %s)\n", config.DefaultOutputDir)
	fmt.Fprintf(os.Stderr, "  --html\n\t\tAlso write an interactive HTML report\n")
	fmt.Fprintf(os.Stderr, "  --seed N\n\t\tSeed for synthesis, split and model (default: %d)\n", config.DefaultSeed)
	fmt.Fprintf(os.Stderr, "  --no-figures\n\t\tSkip figure rendering\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
	fmt.Fprintf(os.Stderr, "\nEnvironment variables prefixed with ROADSAFETY_ override file settings.\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	configFlag := flag.String("config", "", "Configuration file (JSON or YAML)")
	outFlag := flag.String("out", "", "Directory for rendered figures")
	htmlFlag := flag.Bool("html", false, "Also write an interactive HTML report")
	seedFlag := flag.Uint64("seed", config.DefaultSeed, "Random seed")
	noFiguresFlag := flag.Bool("no-figures", false, "Skip figure rendering")

	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	flag.Parse()

	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	cfg := config.NewConfig()
	if *configFlag != "" {
		loaded, err := config.LoadFromFile(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg = config.LoadFromEnv(cfg)

	// explicit flags win over file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.OutputDir = *outFlag
		case "html":
			cfg.HTMLReport = *htmlFlag
		case "seed":
			cfg.Seed = *seedFlag
		}
	})

	os.Exit(run(cfg, !*noFiguresFlag))
}

func run(cfg config.Config, figures bool) int {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collector := monitoring.NewMetricsCollector(cfg.MetricsCollection)
	opts := []roadsafety.Option{
		roadsafety.WithLogger(logger),
		roadsafety.WithReport(os.Stdout),
		roadsafety.WithMetrics(collector),
	}
	if !figures {
		opts = append(opts, roadsafety.WithoutFigures())
	}

	res, err := roadsafety.Run(ctx, cfg, opts...)
	if err != nil {
		logger.Error("pipeline failed", zap.Error(err))
		return 1
	}
	defer res.Release()

	if collector.IsEnabled() {
		fmt.Println()
		fmt.Println(collector.GetSummary().String())
		if res.Artifacts.Metrics != "" {
			fmt.Printf("Prometheus metrics: %s\n", res.Artifacts.Metrics)
		}
	}
	return 0
}
