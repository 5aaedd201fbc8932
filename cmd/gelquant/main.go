package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	_ "golang.org/x/image/tiff"

	"gelquant/pkg/analysis"
	"gelquant/pkg/config"
	"gelquant/pkg/gelimage"
	"gelquant/pkg/report"
	"gelquant/pkg/visualization"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}

	// Parse command line arguments
	inputPath := flag.String("input", "", "Gel image to analyse (PNG, JPEG or TIFF)")
	configPath := flag.String("config", config.ConfigPathFromEnv("gelquant.yaml"), "YAML configuration file")
	overridesPath := flag.String("overrides", "", "YAML file with manual band edits")
	outputDir := flag.String("output", "", "Directory for reports, overlays and plots")
	numCores := flag.Int("cores", runtime.NumCPU(), "Number of lanes analysed in parallel")
	autoGeometry := flag.Bool("auto-geometry", false, "Detect inversion, rotation and ROI before analysis")
	writeCSV := flag.Bool("csv", true, "Write lane and band CSV reports")
	writeOverlay := flag.Bool("overlay", true, "Write the annotated overlay image")
	writePlots := flag.Bool("plots", false, "Write one profile plot per lane")
	verbose := flag.Bool("verbose", false, "Log every pipeline stage")
	writeConfig := flag.String("write-config", "", "Write a default configuration file to this path and exit")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *writeConfig)
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv()

	// Flags given explicitly win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "output":
			cfg.Output.Dir = *outputDir
		case "cores":
			cfg.Processing.NumCores = *numCores
		case "auto-geometry":
			cfg.Processing.AutoGeometry = *autoGeometry
		case "csv":
			cfg.Output.CSV = *writeCSV
		case "overlay":
			cfg.Output.Overlay = *writeOverlay
		case "plots":
			cfg.Output.Plots = *writePlots
		case "verbose":
			cfg.Processing.Verbose = *verbose
		}
	})

	overrides, err := config.LoadOverrides(*overridesPath)
	if err != nil {
		log.Fatalf("Failed to load overrides: %v", err)
	}

	img, err := loadImage(*inputPath)
	if err != nil {
		log.Fatalf("Failed to load image: %v", err)
	}

	fmt.Println("================================")
	fmt.Println("GEL ELECTROPHORESIS INTEGRITY ANALYSIS")
	fmt.Println("================================")
	fmt.Printf("Image: %s (%dx%d)\n", *inputPath, img.Width, img.Height)

	settings := cfg.Settings
	if cfg.Processing.AutoGeometry {
		g, err := analysis.DetectGeometry(img)
		if err != nil {
			log.Fatalf("Geometry detection failed: %v", err)
		}
		settings = g.Apply(settings)
		fmt.Printf("Detected geometry: invert=%v rotation=%.1f° roi=[top %.1f%% bottom %.1f%% left %.1f%% right %.1f%%]\n",
			g.Invert, g.Angle, g.ROI.Top, g.ROI.Bottom, g.ROI.Left, g.ROI.Right)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	proc := analysis.NewProcessor(&analysis.Params{
		NumCores: cfg.Processing.NumCores,
		Verbose:  cfg.Processing.Verbose,
	})

	startTime := time.Now()
	res, err := proc.Process(ctx, img, settings, overrides)
	if err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nAnalysis %s completed in %.2f seconds\n", res.RunID, processingTime.Seconds())
	fmt.Printf("Lanes found: %d\n\n", len(res.Lanes))
	fmt.Printf("%-6s %-6s %-7s %-12s %-12s %-12s %s\n",
		"Lane", "Bands", "Smears", "Total", "Intact", "Degraded", "Integrity")
	for _, lane := range res.Lanes {
		fmt.Printf("%-6d %-6d %-7d %-12.1f %-12.1f %-12.1f %.1f%%\n",
			lane.Index+1, len(lane.Bands), len(lane.Smears),
			lane.TotalLaneVolume, lane.MainBandVolume, lane.DegradationVolume, lane.IntegrityScore)
	}

	if !cfg.Output.CSV && !cfg.Output.Overlay && !cfg.Output.Plots {
		return
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	if cfg.Output.CSV {
		lanesCSV := filepath.Join(cfg.Output.Dir, "lanes.csv")
		bandsCSV := filepath.Join(cfg.Output.Dir, "bands.csv")
		if err := report.SaveCSV(lanesCSV, bandsCSV, res.Lanes); err != nil {
			log.Printf("Warning: Failed to write CSV reports: %v", err)
		} else {
			fmt.Printf("\nReports saved to: %s, %s\n", lanesCSV, bandsCSV)
		}
	}

	if cfg.Output.Overlay && res.Cropped != nil {
		overlayPath := filepath.Join(cfg.Output.Dir, "overlay.png")
		viewer := visualization.NewViewer(res.Cropped, res.Lanes)
		if err := viewer.SaveOverlay(overlayPath); err != nil {
			log.Printf("Warning: Failed to write overlay: %v", err)
		} else {
			fmt.Printf("Overlay saved to: %s\n", overlayPath)
		}
	}

	if *overridesPath != "" {
		// keep the edits next to the results they produced
		editsPath := filepath.Join(cfg.Output.Dir, "overrides.yaml")
		if err := config.SaveOverrides(overrides, editsPath); err != nil {
			log.Printf("Warning: Failed to write overrides: %v", err)
		}
	}

	if cfg.Output.Plots {
		plotsDir := filepath.Join(cfg.Output.Dir, "profiles")
		if err := visualization.SaveProfilePlots(res.Lanes, settings.ShowBackgroundProfile, plotsDir); err != nil {
			log.Printf("Warning: Failed to write profile plots: %v", err)
		} else {
			fmt.Printf("Profile plots saved to: %s\n", plotsDir)
		}
	}
}

// loadImage decodes any registered image format into a pixel buffer
func loadImage(path string) (*gelimage.ImageBuffer, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return gelimage.FromImage(img), nil
}
