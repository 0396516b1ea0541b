package sdlc

import (
	"errors"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/flowgallery/internal/infrastructure/httpclient"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Result statuses reported to the flow editor
const (
	StatusSuccess = "success"
	StatusWarning = "warning"
	StatusError   = "error"
)

const (
	defaultAzureDevOpsURL = "https://dev.azure.com"
	defaultModel          = "gpt-3.5-turbo"
	defaultTimeout        = 30 * time.Second
)

// Config configures the SDLC components
type Config struct {
	// AzureDevOpsURL is the API host; overridable for on-premises servers and tests
	AzureDevOpsURL string
	// OpenAIAPIKey is used when a request carries no key of its own
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	Timeout       time.Duration
}

// Recorder receives component call outcomes
type Recorder interface {
	RecordComponentCall(component, status string, duration time.Duration)
}

// ExtractorFactory builds an Extractor for an API key and model
type ExtractorFactory func(apiKey, model string) Extractor

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(rec Recorder) Option {
	return func(s *Service) {
		s.recorder = rec
	}
}

// WithExtractorFactory replaces the OpenAI extractor
func WithExtractorFactory(factory ExtractorFactory) Option {
	return func(s *Service) {
		s.newExtractor = factory
	}
}

// Service runs the Jira and Azure DevOps components
type Service struct {
	cfg          Config
	jira         *httpclient.Client
	ado          *httpclient.Client
	newExtractor ExtractorFactory
	logger       *zap.Logger
	recorder     Recorder
}

// NewService creates the SDLC component service
func NewService(cfg Config, opts ...Option) *Service {
	if cfg.AzureDevOpsURL == "" {
		cfg.AzureDevOpsURL = defaultAzureDevOpsURL
	}
	cfg.AzureDevOpsURL = strings.TrimRight(cfg.AzureDevOpsURL, "/")
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	s := &Service{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("sdlc")
	if s.newExtractor == nil {
		s.newExtractor = func(apiKey, model string) Extractor {
			return NewOpenAIExtractor(apiKey, model, cfg.OpenAIBaseURL, s.logger)
		}
	}

	jira := httpclient.DefaultConfig("jira")
	jira.Timeout = cfg.Timeout
	jira.Logger = s.logger
	s.jira = httpclient.New(jira)

	ado := httpclient.DefaultConfig("azure-devops")
	ado.BaseURL = cfg.AzureDevOpsURL
	ado.Timeout = cfg.Timeout
	ado.Logger = s.logger
	s.ado = httpclient.New(ado)

	return s
}

func (s *Service) record(component, status string, start time.Time) {
	if s.recorder != nil {
		s.recorder.RecordComponentCall(component, status, time.Since(start))
	}
}

func (s *Service) openAIKey(requestKey string) string {
	if requestKey != "" {
		return requestKey
	}
	return s.cfg.OpenAIAPIKey
}

func (s *Service) model(requestModel string) string {
	if requestModel != "" {
		return requestModel
	}
	return s.cfg.OpenAIModel
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func inputValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		})
	})
	return validate
}

// missingParameter returns the first invalid field of in as a user-facing message
func missingParameter(in any) (string, bool) {
	err := inputValidator().Struct(in)
	if err == nil {
		return "", false
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		if fe.Tag() == "required" {
			return "Missing required parameter: " + fe.Field(), true
		}
		return "Invalid parameter: " + fe.Field(), true
	}
	return err.Error(), true
}
