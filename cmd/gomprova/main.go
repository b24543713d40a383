package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gompdf/gomprova"
	"github.com/gompdf/gomprova/internal/config"
	"github.com/gompdf/gomprova/internal/content"
	"github.com/gompdf/gomprova/internal/logger"
	"github.com/gompdf/gomprova/internal/measure"
	"github.com/gompdf/gomprova/internal/metrics"
	"github.com/gompdf/gomprova/internal/render/raster"
	"github.com/gompdf/gomprova/internal/res"
	"github.com/gompdf/gomprova/internal/server"
	"github.com/gompdf/gomprova/internal/workspace"
)

const usage = `Usage: gomprova <command> [flags]

Commands:
  paginate  print the sheet layout of a document
  export    write a document as PDF or PNG pages
  serve     run the preview and export API
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "paginate":
		err = paginate(ctx, os.Args[2:])
	case "export":
		err = exportCmd(ctx, os.Args[2:])
	case "serve":
		err = serve(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Printf("Error: unknown command %q\n", os.Args[1])
		fmt.Print(usage)
		os.Exit(1)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

type commonFlags struct {
	input     string
	template  string
	config    string
	estimator string
	fontDir   string
	verbose   bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.input, "input", "", "Input YAML document path")
	fs.StringVar(&c.template, "template", "", "Template overriding the document's")
	fs.StringVar(&c.config, "config", "", "Configuration file path")
	fs.StringVar(&c.estimator, "estimator", string(gomprova.EstimatorRaster), "Height estimator: raster or fontmetrics")
	fs.StringVar(&c.fontDir, "fonts", "", "Directory with TrueType fonts")
	fs.BoolVar(&c.verbose, "verbose", false, "Enable verbose logging")
}

func (c *commonFlags) composer() (*gomprova.Composer, error) {
	opts := gomprova.DefaultOptions()
	for _, o := range []gomprova.Option{
		gomprova.WithTemplate(c.template),
		gomprova.WithConfigFile(c.config),
		gomprova.WithEstimator(gomprova.Estimator(c.estimator)),
		gomprova.WithFontDirectory(c.fontDir),
		gomprova.WithDebug(c.verbose),
	} {
		o(&opts)
	}
	composer := gomprova.NewWithOptions(opts)
	if c.verbose {
		log, err := logger.New("development")
		if err != nil {
			return nil, err
		}
		composer.SetLogger(log)
	}
	return composer, nil
}

func parse(fs *flag.FlagSet, c *commonFlags, args []string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	if c.input == "" {
		fs.Usage()
		return fmt.Errorf("input file is required")
	}
	return nil
}

func paginate(ctx context.Context, args []string) error {
	var c commonFlags
	fs := flag.NewFlagSet("paginate", flag.ContinueOnError)
	c.register(fs)
	if err := parse(fs, &c, args); err != nil {
		return err
	}

	composer, err := c.composer()
	if err != nil {
		return err
	}
	doc, err := gomprova.LoadDocumentFile(c.input)
	if err != nil {
		return err
	}
	res, err := composer.Paginate(ctx, doc)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d sheets (%d content)\n", res.Template, res.Total, res.ContentPages)
	for _, s := range res.Sheets {
		line := fmt.Sprintf("  %3d %-7s", s.Number, s.Kind)
		for i, col := range s.Blocks {
			nums := make([]string, len(col))
			for j, n := range col {
				nums[j] = fmt.Sprint(n)
			}
			line += fmt.Sprintf(" col%d[%s]", i+1, strings.Join(nums, ","))
		}
		if len(s.Groups) > 0 {
			line += " " + strings.Join(s.Groups, ", ")
		}
		fmt.Println(line)
	}
	return nil
}

func exportCmd(ctx context.Context, args []string) error {
	var (
		c      commonFlags
		output string
		pngDir string
		scale  float64
	)
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	c.register(fs)
	fs.StringVar(&output, "output", "", "Output PDF file path")
	fs.StringVar(&pngDir, "png", "", "Write PNG pages to this directory instead of a PDF")
	fs.Float64Var(&scale, "scale", 2, "Capture resolution multiplier")
	if err := parse(fs, &c, args); err != nil {
		return err
	}

	composer, err := c.composer()
	if err != nil {
		return err
	}
	composer.WithOption(gomprova.WithScale(scale))

	if pngDir != "" {
		doc, err := gomprova.LoadDocumentFile(c.input)
		if err != nil {
			return err
		}
		files, err := composer.ExportPNG(ctx, doc, pngDir)
		if err != nil {
			return err
		}
		if c.verbose {
			fmt.Printf("Wrote %d pages to %s\n", len(files), pngDir)
		}
		return nil
	}

	written, err := composer.ExportFile(ctx, c.input, output)
	if err != nil {
		return err
	}
	if c.verbose {
		fmt.Printf("Successfully exported %s to %s\n", c.input, written)
	}
	return nil
}

func serve(ctx context.Context, args []string) error {
	var (
		configFile string
		input      string
		addr       string
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&configFile, "config", "", "Configuration file path")
	fs.StringVar(&input, "input", "", "Optional YAML document to start from")
	fs.StringVar(&addr, "addr", "", "Listen address overriding the configuration")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer log.Sync()
	if addr == "" {
		addr = cfg.Server.Addr
	}

	loader := res.NewLoader("")
	fonts, err := raster.LoadFonts(ctx, loader, cfg.Server.FontDir)
	if err != nil {
		return err
	}
	renderer := raster.New(fonts, loader, raster.WithLogger(log))
	m := metrics.New()

	sess := workspace.New(config.NewStore(cfg.DocumentConfiguration()), cfg.Document.Template, workspace.Options{
		Estimator: renderer,
		Measure: measure.Options{
			Concurrency: cfg.Measure.Concurrency,
			RetryDelay:  cfg.Measure.RetryDelay,
			MaxAttempts: cfg.Measure.MaxAttempts,
		},
		Debounce: cfg.Measure.Debounce,
		Observer: m,
		Logger:   log,
	})
	defer sess.Close()
	if input != "" {
		doc, err := content.LoadDocumentFile(input)
		if err != nil {
			return err
		}
		if err := sess.Load(doc); err != nil {
			return err
		}
	}
	sess.Schedule()

	srv := server.New(server.Deps{
		Session:  sess,
		Capturer: renderer,
		Metrics:  m,
		Logger:   log,
		Mode:     cfg.Server.Mode,
	})
	return srv.Run(ctx, addr)
}
