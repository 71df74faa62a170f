package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/df07/go-tiled-pathtracer/pkg/imageio"
	"github.com/df07/go-tiled-pathtracer/pkg/integrator"
	"github.com/df07/go-tiled-pathtracer/pkg/loaders"
	"github.com/df07/go-tiled-pathtracer/pkg/renderer"
	"github.com/df07/go-tiled-pathtracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	Scene      string
	SceneDir   string
	Output     string
	Checkpoint string
	Resume     string
	Variant    string
	Width      int
	Height     int
	Samples    int
	Passes     int
	Initial    int
	TileSize   int
	Workers    int
	Seed       uint64
	List       bool
	Verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	defaults := renderer.DefaultConfig()
	var opts options

	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.Scene, "scene", "cubes", "Built-in scene name, scene ID or path to a JSON scene file")
	fs.StringVar(&opts.SceneDir, "scenes", "scenes", "Directory searched for JSON scene files")
	fs.StringVar(&opts.Output, "output", "", "Output image (.png, .bmp, .tif); default output/<scene>/render_<timestamp>.png")
	fs.StringVar(&opts.Checkpoint, "checkpoint", "", "Write the accumulation buffer here when the render ends or is interrupted")
	fs.StringVar(&opts.Resume, "resume", "", "Continue from a checkpoint written by -checkpoint")
	fs.StringVar(&opts.Variant, "variant", defaults.Variant.String(), "Integrator: "+variantNames())
	fs.IntVar(&opts.Width, "width", defaults.Width, "Image width in pixels")
	fs.IntVar(&opts.Height, "height", defaults.Height, "Image height in pixels")
	fs.IntVar(&opts.Samples, "samples", defaults.SamplesPerPixel, "Samples per pixel")
	fs.IntVar(&opts.Passes, "passes", defaults.Passes, "Number of progressive passes")
	fs.IntVar(&opts.Initial, "initial", defaults.InitialSamples, "Samples per pixel after the first of several passes")
	fs.IntVar(&opts.TileSize, "tile", defaults.TileSize, "Tile edge length; must divide width and height")
	fs.IntVar(&opts.Workers, "workers", defaults.NumWorkers, "Number of workers (0 = number of CPUs)")
	fs.Uint64Var(&opts.Seed, "seed", defaults.Seed, "Run seed")
	fs.BoolVar(&opts.List, "list", false, "List the available scenes and exit")
	fs.BoolVar(&opts.Verbose, "v", false, "Log every tile")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	return opts, nil
}

func variantNames() string {
	var names []string
	for _, v := range integrator.Variants() {
		names = append(names, v.String())
	}
	return strings.Join(names, ", ")
}

// config converts the options into a render config
func (o options) config() (renderer.Config, error) {
	variant, err := integrator.ParseVariant(o.Variant)
	if err != nil {
		return renderer.Config{}, err
	}

	config := renderer.DefaultConfig()
	config.Width = o.Width
	config.Height = o.Height
	config.TileSize = o.TileSize
	config.SamplesPerPixel = o.Samples
	config.Passes = o.Passes
	config.InitialSamples = o.Initial
	config.NumWorkers = o.Workers
	config.Seed = o.Seed
	config.Variant = variant
	return config, config.Validate()
}

// createScene resolves a scene argument: a path to a JSON file, a "file:" ID
// or plain name of a file in sceneDir, or a built-in scene
func createScene(name, sceneDir string, logger *slog.Logger) (*scene.Scene, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: empty scene name", scene.ErrUnknownScene)
	}

	if strings.EqualFold(filepath.Ext(name), ".json") {
		return loaders.LoadScene(name, logger)
	}

	id, isFile := strings.CutPrefix(name, "file:")
	if !isFile {
		s, err := scene.ByName(name)
		if err == nil || !errors.Is(err, scene.ErrUnknownScene) {
			return s, err
		}
	}

	path := filepath.Join(sceneDir, id+".json")
	if id == "" || id != filepath.Base(id) {
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownScene, name)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %q", scene.ErrUnknownScene, name)
	}
	return loaders.LoadScene(path, logger)
}

// defaultOutputPath is output/<scene>/render_<timestamp>.png
func defaultOutputPath(sceneName string, now time.Time) string {
	base := filepath.Base(sceneName)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.TrimPrefix(base, "file:")
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "scene"
	}
	return filepath.Join("output", base, fmt.Sprintf("render_%s.png", now.Format("20060102_150405")))
}

// listScenes prints the built-in scenes and the scene files in sceneDir
func listScenes(w io.Writer, sceneDir string, logger *slog.Logger) error {
	scenes := scene.Builtins()
	files, err := loaders.ListSceneFiles(sceneDir, logger)
	if err != nil {
		return err
	}
	scenes = append(scenes, files...)

	for _, info := range scenes {
		fmt.Fprintf(w, "  %-20s %s", info.ID, info.Name)
		if info.Description != "" {
			fmt.Fprintf(w, " - %s", info.Description)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// run renders one image according to opts
func run(ctx context.Context, opts options, stdout io.Writer, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.List {
		return listScenes(stdout, opts.SceneDir, logger)
	}

	config, err := opts.config()
	if err != nil {
		return err
	}

	sceneObj, err := createScene(opts.Scene, opts.SceneDir, logger)
	if err != nil {
		return err
	}

	camera := sceneObj.View.Camera(float64(config.Width) / float64(config.Height))
	raytracer, err := renderer.New(sceneObj, camera, config, logger)
	if err != nil {
		return err
	}

	if opts.Resume != "" {
		acc, err := loadCheckpoint(opts.Resume)
		if err != nil {
			return err
		}
		if err := raytracer.Resume(acc); err != nil {
			return err
		}
		logger.Info("resuming render", "checkpoint", opts.Resume, "average_samples", acc.Stats().AverageSamples)
	}

	output := opts.Output
	if output == "" {
		output = defaultOutputPath(opts.Scene, time.Now())
	}
	if _, err := imageio.FormatFromPath(output); err != nil {
		return err
	}

	printer := message.NewPrinter(language.English)
	printer.Fprintf(stdout, "Rendering %s at %dx%d, %d samples per pixel in %d passes (%s)\n",
		sceneObj.Name, config.Width, config.Height, config.SamplesPerPixel, config.Passes, config.Variant)

	startTime := time.Now()
	passChan, _, errChan := raytracer.RenderProgressive(ctx, renderer.RenderOptions{})

	var last renderer.PassResult
	for result := range passChan {
		last = result
		printer.Fprintf(stdout, "Pass %d/%d: %.1f samples per pixel (%d total) in %v\n",
			result.PassNumber, config.Passes, result.Stats.AverageSamples, result.Stats.TotalSamples,
			result.Stats.Elapsed.Round(time.Millisecond))
	}
	renderErr := <-errChan

	// A cancelled render still leaves whole tiles behind, worth keeping
	if opts.Checkpoint != "" && (renderErr == nil || errors.Is(renderErr, context.Canceled)) {
		if err := saveCheckpoint(opts.Checkpoint, raytracer.Accumulator()); err != nil {
			return errors.Join(renderErr, err)
		}
		logger.Info("checkpoint written", "path", opts.Checkpoint)
	}
	if renderErr != nil {
		return renderErr
	}

	if err := imageio.Save(output, last.Image); err != nil {
		return err
	}
	printer.Fprintf(stdout, "Render completed in %v, saved as %s\n", time.Since(startTime).Round(time.Millisecond), output)
	return nil
}

func loadCheckpoint(path string) (*renderer.Accumulator, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint: %w", err)
	}
	defer file.Close()
	return renderer.LoadAccumulator(file)
}

func saveCheckpoint(path string, acc *renderer.Accumulator) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	// Write to a temporary file first so an old checkpoint survives a failed save
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint: %w", err)
	}
	if err := acc.Save(file); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout, logger); err != nil {
		logger.Error("render failed", "error", err)
		stop()
		os.Exit(1)
	}
}
