package api

import "github.com/gompdf/gomprova/internal/config"

// Estimator selects how block heights are measured
type Estimator string

const (
	// EstimatorRaster measures with the faces pages are drawn with
	EstimatorRaster Estimator = "raster"
	// EstimatorFontMetrics measures with PDF core font metrics
	EstimatorFontMetrics Estimator = "fontmetrics"
)

// Options represents configuration options for composing exam sheets
type Options struct {
	// Template overrides the document's template when set
	Template string

	// Configuration file read with viper; empty means defaults only
	ConfigFile string
	// LogoURL overrides the configured logo
	LogoURL string
	// Template styles applied over the configuration
	Styles map[string]config.TemplateStyle

	// Rendering options
	Scale     float64
	Estimator Estimator
	Debug     bool

	// Resource paths
	ResourcePaths []string
	FontDirectory string

	// Measurement fan-out
	Concurrency int
}

// Option is a function that modifies Options
type Option func(*Options)

// DefaultOptions returns the default options
func DefaultOptions() Options {
	return Options{
		Scale:         2,
		Estimator:     EstimatorRaster,
		Styles:        map[string]config.TemplateStyle{},
		ResourcePaths: []string{},
		Concurrency:   4,
	}
}

// WithTemplate sets the template, overriding the document's
func WithTemplate(name string) Option {
	return func(o *Options) {
		o.Template = name
	}
}

// WithConfigFile sets the configuration file
func WithConfigFile(path string) Option {
	return func(o *Options) {
		o.ConfigFile = path
	}
}

// WithLogo sets the logo reference
func WithLogo(url string) Option {
	return func(o *Options) {
		o.LogoURL = url
	}
}

// WithTemplateStyle sets the page padding, font size and font family of a template
func WithTemplateStyle(template, padding, fontSize, fontFamily string) Option {
	return func(o *Options) {
		if o.Styles == nil {
			o.Styles = map[string]config.TemplateStyle{}
		}
		o.Styles[template] = config.TemplateStyle{Padding: padding, FontSize: fontSize, FontFamily: fontFamily}
	}
}

// WithScale sets the capture resolution multiplier
func WithScale(scale float64) Option {
	return func(o *Options) {
		o.Scale = scale
	}
}

// WithEstimator selects the height estimator
func WithEstimator(e Estimator) Option {
	return func(o *Options) {
		o.Estimator = e
	}
}

// WithDebug sets the debug mode
func WithDebug(debug bool) Option {
	return func(o *Options) {
		o.Debug = debug
	}
}

// WithResourcePath adds a path to search for images
func WithResourcePath(path string) Option {
	return func(o *Options) {
		o.ResourcePaths = append(o.ResourcePaths, path)
	}
}

// WithFontDirectory sets the directory holding regular.ttf, bold.ttf,
// italic.ttf and bolditalic.ttf
func WithFontDirectory(dir string) Option {
	return func(o *Options) {
		o.FontDirectory = dir
	}
}

// WithConcurrency bounds concurrent block measurements
func WithConcurrency(n int) Option {
	return func(o *Options) {
		o.Concurrency = n
	}
}
