package gomprova

import (
	"github.com/gompdf/gomprova/pkg/api"
)

type Composer = api.Composer
type Options = api.Options
type Option = api.Option
type Estimator = api.Estimator
type Document = api.Document
type Block = api.Block
type Choice = api.Choice
type Statement = api.Statement
type Result = api.Result
type SheetSummary = api.SheetSummary

func New() *Composer                           { return api.New() }
func NewWithOptions(options Options) *Composer { return api.NewWithOptions(options) }
func DefaultOptions() Options                  { return api.DefaultOptions() }

// LoadDocumentFile reads a YAML exam document
func LoadDocumentFile(path string) (*Document, error) { return api.LoadDocumentFile(path) }

var (
	WithTemplate      = api.WithTemplate
	WithConfigFile    = api.WithConfigFile
	WithLogo          = api.WithLogo
	WithTemplateStyle = api.WithTemplateStyle
	WithScale         = api.WithScale
	WithEstimator     = api.WithEstimator
	WithDebug         = api.WithDebug
	WithResourcePath  = api.WithResourcePath
	WithFontDirectory = api.WithFontDirectory
	WithConcurrency   = api.WithConcurrency
	FileName          = api.FileName
)

const (
	EstimatorRaster      = api.EstimatorRaster
	EstimatorFontMetrics = api.EstimatorFontMetrics
)
