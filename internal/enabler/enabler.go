package enabler

import (
	"strings"
	"time"

	"go.uber.org/zap"

	"paybridge/internal/models"
)

// DefaultOrigin is the hosted payment page origin.
const DefaultOrigin = "https://paygate.novalnet.de"

var (
	// CheckoutScript renders the hosted page as child window.
	CheckoutScript = Script{
		ID:          "novalnet-checkout-js",
		URL:         "https://paygate.novalnet.de/v2/checkout-1.1.0.js",
		Integrity:   "sha384-RTo1KLOtNoTrL1BSbu7e6j+EBW5LRzBKiOMAo5C2MBUB9kapkJi1LPG4jk5vzPyv",
		CrossOrigin: "anonymous",
		Global:      "Novalnet",
	}

	// UtilityScript renders the embedded card form.
	UtilityScript = Script{
		ID:          "novalnet-utility-js",
		URL:         "https://cdn.novalnet.de/js/v2/NovalnetUtility-1.1.2.js",
		CrossOrigin: "anonymous",
		Global:      "NovalnetUtility",
	}
)

// Config is the page-level checkout configuration.
type Config struct {
	ProcessorURL string
	SessionID    string
	Origin       string
	Timeout      time.Duration
	OnComplete   func(Result)
	OnError      func(msg string, ctx *ErrorContext)
}

// WithCheckoutConfig overlays the processor's published settings. Zero
// values keep the current ones.
func (c Config) WithCheckoutConfig(r models.CheckoutConfigResponse) Config {
	if r.ProcessorURL != "" {
		c.ProcessorURL = r.ProcessorURL
	}
	if r.Origin != "" {
		c.Origin = r.Origin
	}
	if r.AttemptTimeoutMs > 0 {
		c.Timeout = time.Duration(r.AttemptTimeoutMs) * time.Millisecond
	}
	return c
}

// Enabler builds payment method components for one page. All components
// share the page's Bootstrapper.
type Enabler struct {
	cfg       Config
	processor Processor
	window    Window
	widget    Widget
	boot      *Bootstrapper
	log       *zap.Logger
}

func New(cfg Config, window Window, doc Document, widget Widget, log *zap.Logger) *Enabler {
	return NewWithProcessor(cfg, NewProcessorClient(cfg.ProcessorURL, cfg.SessionID), window, doc, widget, log)
}

// NewWithProcessor is New with an explicit processor.
func NewWithProcessor(cfg Config, processor Processor, window Window, doc Document, widget Widget, log *zap.Logger) *Enabler {
	if cfg.Origin == "" {
		cfg.Origin = DefaultOrigin
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Enabler{
		cfg:       cfg,
		processor: processor,
		window:    window,
		widget:    widget,
		boot:      NewBootstrapper(doc),
		log:       log,
	}
}

// ModeFor picks how a method's hosted page is shown.
func ModeFor(method string) Mode {
	switch strings.ToLower(method) {
	case models.MethodCard, models.MethodCreditCard:
		return ModeFrame
	case models.MethodIdeal:
		return ModeRedirect
	}
	return ModeChildWindow
}

// Create returns a component for method. containerID is only used by
// embedded forms.
func (e *Enabler) Create(method, containerID string, validate func() error) *Component {
	mode := ModeFor(method)
	script := CheckoutScript
	if mode == ModeFrame {
		script = UtilityScript
	}
	return NewComponent(ComponentConfig{
		Method:      strings.ToLower(method),
		Mode:        mode,
		Origin:      e.cfg.Origin,
		Script:      script,
		ContainerID: containerID,
		Timeout:     e.cfg.Timeout,
		Validate:    validate,
		OnComplete:  e.cfg.OnComplete,
		OnError:     e.cfg.OnError,
	}, e.processor, e.window, e.widget, e.boot, e.log.With(zap.String("method", method)))
}
