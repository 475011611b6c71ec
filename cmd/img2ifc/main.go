package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/rosbache/afry-img2ifc/internal/config"
	"github.com/rosbache/afry-img2ifc/internal/extract"
	"github.com/rosbache/afry-img2ifc/internal/ifc"
	"github.com/rosbache/afry-img2ifc/internal/logging"
	"github.com/rosbache/afry-img2ifc/internal/models"
	"github.com/rosbache/afry-img2ifc/internal/repository"
)

const usage = `Usage: img2ifc <command> [flags]

Commands:
  extract   read GPS metadata from a folder of images into processed_images.json
  convert   build an IFC marker file from processed_images.json
  run       extract and convert in one pass
`

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "extract":
		runExtract(cfg, os.Args[2:])
	case "convert":
		runConvert(cfg, os.Args[2:])
	case "run":
		runPipeline(cfg, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}
}

func runExtract(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	inputDir := fs.String("in", "", "input folder containing images (required)")
	outputJSON := fs.String("json", "processed_images.json", "output interchange file")
	targetCRS := fs.String("crs", cfg.Extract.TargetCRS, "target EPSG coordinate system")
	includeNoGPS := fs.Bool("include-no-gps", cfg.Extract.IncludeNoGPS, "keep images without GPS data")
	baseURL := fs.String("base-url", cfg.Extract.BaseImageURL, "base URL where images are hosted")
	dbPath := fs.String("db", "", "also persist records into this batch-history database")
	verbose := fs.Bool("v", false, "verbose output")
	fs.Parse(args)

	if *inputDir == "" {
		logging.Fatalf("extract: -in is required")
	}
	if *verbose {
		logging.Setup("debug")
	}

	extractCfg := cfg.Extract
	extractCfg.TargetCRS = *targetCRS
	extractCfg.IncludeNoGPS = *includeNoGPS
	extractCfg.BaseImageURL = *baseURL

	builder := extract.New(extractCfg)
	if *dbPath != "" {
		db, err := repository.NewSQLiteDB(*dbPath)
		if err != nil {
			logging.Fatalf("extract failed: %v", err)
		}
		defer db.Close()
		builder.WithStore(db)
	}

	result, err := builder.Run(context.Background(), *inputDir, *outputJSON)
	if err != nil {
		logging.Fatalf("extract failed: %v", err)
	}

	fmt.Printf("processed %d of %d images (%d without GPS, %d failed), records written to %s\n",
		result.Processed, result.Candidates, result.NoGPS, result.Failed, *outputJSON)
}

func runConvert(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	inputJSON := fs.String("json", "processed_images.json", "interchange file from extract")
	outputIFC := fs.String("o", "markers.ifc", "output IFC file")
	settingsPath := fs.String("settings", "", "optional project_settings.json")
	schema := fs.String("schema", cfg.Export.Schema, "IFC schema version (IFC2X3 or IFC4X3)")
	baseURL := fs.String("base-url", "", "rebase each record's image URL onto this base")
	fs.Parse(args)

	records, err := models.ReadRecords(*inputJSON)
	if err != nil {
		logging.Fatalf("convert failed: %v", err)
	}
	if *baseURL != "" {
		rebaseURLs(records, *baseURL)
	}

	convert(cfg, records, *outputIFC, *settingsPath, *schema)
}

func runPipeline(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	inputDir := fs.String("in", "", "input folder containing images (required)")
	outputJSON := fs.String("json", "processed_images.json", "output interchange file")
	outputIFC := fs.String("o", "markers.ifc", "output IFC file")
	settingsPath := fs.String("settings", "", "optional project_settings.json")
	schema := fs.String("schema", cfg.Export.Schema, "IFC schema version (IFC2X3 or IFC4X3)")
	targetCRS := fs.String("crs", cfg.Extract.TargetCRS, "target EPSG coordinate system")
	includeNoGPS := fs.Bool("include-no-gps", cfg.Extract.IncludeNoGPS, "keep images without GPS data")
	baseURL := fs.String("base-url", cfg.Extract.BaseImageURL, "base URL where images are hosted")
	dbPath := fs.String("db", "", "also persist records into this batch-history database")
	verbose := fs.Bool("v", false, "verbose output")
	fs.Parse(args)

	if *inputDir == "" {
		logging.Fatalf("run: -in is required")
	}
	if *verbose {
		logging.Setup("debug")
	}

	extractCfg := cfg.Extract
	extractCfg.TargetCRS = *targetCRS
	extractCfg.IncludeNoGPS = *includeNoGPS
	extractCfg.BaseImageURL = *baseURL

	builder := extract.New(extractCfg)
	if *dbPath != "" {
		db, err := repository.NewSQLiteDB(*dbPath)
		if err != nil {
			logging.Fatalf("extract failed: %v", err)
		}
		defer db.Close()
		builder.WithStore(db)
	}

	result, err := builder.Run(context.Background(), *inputDir, *outputJSON)
	if err != nil {
		logging.Fatalf("extract failed: %v", err)
	}
	fmt.Printf("processed %d of %d images (%d without GPS, %d failed)\n",
		result.Processed, result.Candidates, result.NoGPS, result.Failed)

	convert(cfg, result.Records, *outputIFC, *settingsPath, *schema)
}

// convert resolves the export configuration once, assembles the document and
// reports the placed/attempted ratio so partial success stays visible.
func convert(cfg *config.Config, records []models.ImageRecord, outputIFC, settingsPath, schema string) {
	settings, err := config.LoadProjectSettings(settingsPath, cfg.Export)
	if err != nil {
		logging.Fatalf("convert failed: %v", err)
	}

	exportCfg := cfg.Export
	exportCfg.Schema = schema

	runCfg, err := ifc.NewExportConfig(exportCfg, settings, cfg.Extract.TargetCRS)
	if err != nil {
		logging.Fatalf("convert failed: %v", err)
	}

	assembler, err := ifc.NewAssembler(runCfg)
	if err != nil {
		logging.Fatalf("convert failed: %v", err)
	}

	report, err := assembler.Export(records, outputIFC)
	if err != nil {
		logging.Fatalf("convert failed: %v", err)
	}

	fmt.Printf("placed %d of %d markers in %s", report.Placed, report.Attempted, outputIFC)
	if report.Skipped > 0 {
		fmt.Printf(" (%d skipped)", report.Skipped)
	}
	fmt.Println()
}

// rebaseURLs rewrites each record's image URL from its filename, keeping the
// interchange data otherwise untouched.
func rebaseURLs(records []models.ImageRecord, baseURL string) {
	base := strings.TrimSuffix(baseURL, "/")
	for i := range records {
		records[i].ImageURL = base + "/" + records[i].Filename
	}
	slog.Debug("rebased image URLs", "base_url", baseURL, "count", len(records))
}
