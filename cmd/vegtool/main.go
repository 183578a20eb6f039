// vegtool is a headless CLI for generating and inspecting vegetation.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"os"
	"text/tabwriter"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/verdant/internal/assets"
	"github.com/Faultbox/verdant/internal/config"
	"github.com/Faultbox/verdant/internal/engine/debug"
	"github.com/Faultbox/verdant/internal/engine/gpu"
	"github.com/Faultbox/verdant/internal/engine/grass"
	"github.com/Faultbox/verdant/internal/engine/rocks"
	"github.com/Faultbox/verdant/internal/logger"
	"github.com/Faultbox/verdant/internal/vegetation"
	"github.com/Faultbox/verdant/internal/world"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "generate", "gen":
		cmdGenerate(args)
	case "stats":
		cmdStats(args)
	case "map":
		cmdMap(args)
	case "presets":
		cmdPresets(args)
	case "config":
		cmdConfig(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`vegtool - procedural vegetation utility

Usage:
  vegtool <command> [options]

Commands:
  generate [-config f] [-seed n] [-preset p] [-o out.yaml]   Generate and report counts
  stats [-config f] [-frames n] [-radius r] [-yaml]           Headless camera sweep
  map [-config f] [-seed n] [-px w] [-o dir]                  Top-down placement map PNG
  presets [name]                                              List presets or show one
  config [-o config.yaml]                                     Write the default config

Examples:
  vegtool generate -preset meadow -seed 7 -o meadow.yaml
  vegtool stats -frames 120 -radius 60
  vegtool presets forest`)
}

// worldFlags are shared by the commands that build a world.
type worldFlags struct {
	config  *string
	seed    *uint64
	preset  *string
	assets  *string
	verbose *bool
}

func addWorldFlags(fs *flag.FlagSet) worldFlags {
	return worldFlags{
		config:  fs.String("config", "", "Config file (defaults when empty)"),
		seed:    fs.Uint64("seed", 0, "Override the world seed (32-bit)"),
		preset:  fs.String("preset", "", "Override the vegetation preset"),
		assets:  fs.String("assets", "", "Extra asset root"),
		verbose: fs.Bool("v", false, "Verbose logging"),
	}
}

// build loads the config and builds a world on a host-memory device.
func (wf worldFlags) build() (*world.World, *gpu.MemDevice) {
	level := "warn"
	if *wf.verbose {
		level = "debug"
	}
	if err := logger.Init(level, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Default()
	if *wf.config != "" {
		var err error
		cfg, err = config.LoadFile(*wf.config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *wf.seed != 0 {
		seed, err := config.ParseSeed(*wf.seed)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.World.Seed = seed
	}
	if *wf.preset != "" {
		cfg.Vegetation.Preset = *wf.preset
	}

	mgr := assets.NewManager()
	roots := cfg.Assets.Roots
	if *wf.assets != "" {
		roots = append(roots, *wf.assets)
	}
	for _, root := range roots {
		if err := mgr.AddRoot(root); err != nil && *wf.verbose {
			fmt.Fprintf(os.Stderr, "Skipping asset root: %v\n", err)
		}
	}

	dev := gpu.NewMemDevice()
	w, err := world.Build(dev, mgr, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return w, dev
}

func cmdGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	wf := addWorldFlags(fs)
	output := fs.String("o", "", "Write generated items as YAML")
	fs.Parse(args)

	w, _ := wf.build()
	defer w.Release()
	defer logger.Sync()

	cfg := w.Config()
	fmt.Printf("Seed:      %d\n", w.Seed)
	fmt.Printf("World:     %g x %g\n", cfg.World.SizeX, cfg.World.SizeZ)
	fmt.Printf("Terrain:   %dx%d samples, height %.1f..%.1f\n",
		w.Terrain.Width, w.Terrain.Depth, w.Terrain.MinHeight, w.Terrain.MaxHeight)

	res := w.Vegetation
	if res == nil {
		fmt.Println("Source:    scatter (no generator output)")
	} else {
		fmt.Printf("Spawn:     %d points, %d clusters\n", res.SpawnPoints, res.Clusters)
		fmt.Printf("Generated: %d grass, %d rocks\n", len(res.Grass), len(res.Rocks))
	}
	fmt.Printf("Placed:    %d grass, %d rocks\n", len(w.Grass.Instances()), len(w.Rocks.Instances()))

	if *output == "" {
		return
	}
	if res == nil {
		fmt.Fprintln(os.Stderr, "Nothing to export: world source is scatter")
		os.Exit(1)
	}
	data, err := yaml.Marshal(res)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding items: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*output, data, 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *output, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote:     %s (%.1f KB)\n", *output, float64(len(data))/1024)
}

// report is the YAML form of the stats command.
type report struct {
	Seed  uint32           `yaml:"seed"`
	Grass grass.Statistics `yaml:"grass"`
	Rocks rocks.Statistics `yaml:"rocks"`
	Sweep world.SweepStats `yaml:"sweep"`
}

func cmdStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	wf := addWorldFlags(fs)
	frames := fs.Int("frames", 60, "Frames in the camera sweep")
	radius := fs.Float64("radius", 50, "Sweep radius")
	height := fs.Float64("height", 2, "Camera height above ground")
	asYAML := fs.Bool("yaml", false, "Print the report as YAML")
	fs.Parse(args)

	w, dev := wf.build()
	defer w.Release()
	defer logger.Sync()

	sweep := w.Sweep(dev, *frames, float32(*radius), float32(*height))
	grassStats := w.Grass.Statistics()
	rockStats := w.Rocks.Statistics()

	if *asYAML {
		out, err := yaml.Marshal(report{Seed: w.Seed, Grass: grassStats, Rocks: rockStats, Sweep: sweep})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Grass\t%d instances\t%d chunks\t%d buffers\n",
		grassStats.Instances, grassStats.Chunks, grassStats.Buffers)
	for _, t := range grassStats.Types {
		fmt.Fprintf(tw, "  %s/%s\t%d\t%.1f%%\n", t.Group, t.Type, t.Count, t.Percent)
	}
	fmt.Fprintf(tw, "Rocks\t%d instances\t%d chunks\t%d buffers\t%d meshes\n",
		rockStats.Instances, rockStats.Chunks, rockStats.Buffers, rockStats.Meshes)
	for _, t := range rockStats.Types {
		fmt.Fprintf(tw, "  %s\t%d\thigh %d\tmedium %d\tlow %d\n",
			t.Name, t.Total, t.Levels[0], t.Levels[1], t.Levels[2])
	}
	tw.Flush()

	fmt.Println()
	fmt.Printf("Sweep: %d frames at radius %.0f\n", sweep.Frames, *radius)
	fmt.Printf("  avg  %d draws, %d visible chunks, %d instances, %.1f KB uploaded\n",
		sweep.Average.DrawCalls, sweep.Average.VisibleChunks, sweep.Average.VisibleInstances,
		float64(sweep.Average.BytesUploaded)/1024)
	fmt.Printf("  peak %d draws, %d visible chunks, %d instances, %.1f KB uploaded\n",
		sweep.Peak.DrawCalls, sweep.Peak.VisibleChunks, sweep.Peak.VisibleInstances,
		float64(sweep.Peak.BytesUploaded)/1024)
}

func cmdMap(args []string) {
	fs := flag.NewFlagSet("map", flag.ExitOnError)
	wf := addWorldFlags(fs)
	width := fs.Int("px", 1024, "Image width in pixels")
	output := fs.String("o", ".", "Output directory")
	fs.Parse(args)

	w, _ := wf.build()
	defer w.Release()
	defer logger.Sync()

	m := debug.NewTopDown(w.Terrain, *width)
	if w.Lake != nil {
		m.DrawDisc(debug.Disc{X: w.Lake.X, Z: w.Lake.Z, Radius: w.Lake.Radius, Color: color.RGBA{R: 38, G: 92, B: 140, A: 255}})
	}

	grassPoints := make([]mgl32.Vec3, 0, len(w.Grass.Instances()))
	for _, g := range w.Grass.Instances() {
		grassPoints = append(grassPoints, g.Position)
	}
	rockPoints := make([]mgl32.Vec3, 0, len(w.Rocks.Instances()))
	for _, r := range w.Rocks.Instances() {
		rockPoints = append(rockPoints, r.Position)
	}
	m.DrawLayer(debug.Layer{Points: grassPoints, Color: color.RGBA{R: 70, G: 170, B: 60, A: 255}})
	m.DrawLayer(debug.Layer{Points: rockPoints, Color: color.RGBA{R: 200, G: 196, B: 190, A: 255}, Radius: 2})

	path, err := debug.NewScreenshots(*output, fmt.Sprintf("map_%d", w.Seed)).Save(m.Image)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d grass, %d rocks)\n", path, len(grassPoints), len(rockPoints))
}

func cmdPresets(args []string) {
	if len(args) == 0 {
		for _, name := range vegetation.PresetNames() {
			fmt.Println(name)
		}
		return
	}

	cfg, ok := vegetation.Preset(args[0])
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown preset: %s\n", args[0])
		os.Exit(1)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}

func cmdConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	output := fs.String("o", "", "Output path (stdout when empty)")
	fs.Parse(args)

	cfg := config.Default()
	if *output != "" {
		if err := cfg.SaveTo(*output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", *output)
		return
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Stdout.Write(out)
}
