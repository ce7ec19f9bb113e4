package enabler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"paybridge/internal/models"
)

// Mode selects how the hosted page is shown.
type Mode string

const (
	ModeChildWindow Mode = "child_window"
	ModeFrame       Mode = "iframe"
	ModeRedirect    Mode = "redirect"
)

// Reasons passed to Widget.CloseChildWindow.
const (
	CloseReasonOutcome = ""
	CloseReasonTimeout = "timeout"
	CloseReasonRefresh = "refresh"
)

// Widget is the gateway script's page object.
type Widget interface {
	SetParam(key, value string)
	Render() error
	CloseChildWindow(reason string)
	CreateForm(cfg FormConfig) error
}

// FormConfig configures an embedded payment form.
type FormConfig struct {
	ContainerID string
	TxnSecret   string
}

// ErrorContext accompanies setup errors.
type ErrorContext struct {
	PaymentReference string
}

// ComponentConfig wires one payment method component.
type ComponentConfig struct {
	Method      string
	Mode        Mode
	Origin      string
	Script      Script
	ContainerID string
	Timeout     time.Duration
	// Validate checks required client fields before a payment is created.
	Validate   func() error
	OnComplete func(Result)
	OnError    func(msg string, ctx *ErrorContext)
}

// Component runs payment attempts for one payment method.
type Component struct {
	cfg       ComponentConfig
	processor Processor
	window    Window
	widget    Widget
	boot      *Bootstrapper
	log       *zap.Logger

	mu      sync.Mutex
	current *Arbitrator
}

func NewComponent(cfg ComponentConfig, processor Processor, window Window, widget Widget, boot *Bootstrapper, log *zap.Logger) *Component {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.OnComplete == nil {
		cfg.OnComplete = func(Result) {}
	}
	if cfg.OnError == nil {
		cfg.OnError = func(string, *ErrorContext) {}
	}
	return &Component{cfg: cfg, processor: processor, window: window, widget: widget, boot: boot, log: log}
}

// Submit creates a payment with the processor and opens the hosted page.
// Setup failures go to OnError; every started attempt ends in OnComplete.
func (c *Component) Submit(ctx context.Context) {
	if c.cfg.Validate != nil {
		if err := c.cfg.Validate(); err != nil {
			c.cfg.OnError(err.Error(), nil)
			return
		}
	}

	resp, err := c.processor.CreatePayment(ctx, models.PaymentRequest{
		PaymentMethod:  models.PaymentMethodInfo{Type: c.cfg.Method},
		PaymentOutcome: models.PaymentOutcomeAuthorized,
	})
	if err != nil || resp.PaymentReference == "" || resp.PaymentReference == RefError {
		c.log.Error("payment creation failed", zap.String("method", c.cfg.Method), zap.Error(err))
		c.cfg.OnError("Some error occurred. Please try again.", &ErrorContext{PaymentReference: RefError})
		return
	}

	switch c.cfg.Mode {
	case ModeRedirect:
		target := resp.RedirectURL
		if target == "" {
			target = resp.PaymentReference
		}
		c.window.Navigate(target)
	case ModeChildWindow, ModeFrame:
		c.openHosted(ctx, resp)
	default:
		c.cfg.OnError("unsupported payment mode: "+string(c.cfg.Mode), nil)
	}
}

// Resume resolves an attempt from a redirect return on page load. It
// reports false when the page URL carries no return parameters.
func (c *Component) Resume() bool {
	loc := c.window.Location()
	if loc == nil {
		return false
	}
	if _, ok := ParseReturnQuery(loc.Query()); !ok {
		return false
	}
	arb := NewArbitrator(ArbitratorConfig{
		Timeout:    c.cfg.Timeout,
		Listeners:  []Listener{&RedirectListener{Window: c.window}},
		OnComplete: c.cfg.OnComplete,
		Logger:     c.log,
	})
	c.setCurrent(arb)
	_, err := arb.Start()
	return err == nil
}

// Close detaches the running attempt without reporting an outcome.
func (c *Component) Close() {
	c.mu.Lock()
	arb := c.current
	c.current = nil
	c.mu.Unlock()
	if arb != nil {
		arb.Close()
	}
}

func (c *Component) openHosted(ctx context.Context, resp *models.PaymentResponse) {
	if resp.TxnSecret == "" {
		c.cfg.OnError("Missing transaction secret from processor", &ErrorContext{PaymentReference: resp.PaymentID})
		return
	}

	if err := c.boot.EnsureLoaded(ctx, c.cfg.Script); err != nil {
		c.log.Error("gateway script load failed", zap.String("url", c.cfg.Script.URL), zap.Error(err))
		msg := "Failed to load Novalnet SDK"
		if !errors.Is(err, ErrScriptLoad) {
			msg = err.Error()
		}
		c.cfg.OnError(msg, nil)
		return
	}

	channel := ChannelPopupMessage
	if c.cfg.Mode == ModeFrame {
		channel = ChannelFrameMessage
	}
	c.widget.SetParam("nn_it", string(c.cfg.Mode))
	c.widget.SetParam("txn_secret", resp.TxnSecret)
	c.widget.SetParam("rftarget", "top")

	arb := NewArbitrator(ArbitratorConfig{
		Timeout: c.cfg.Timeout,
		Listeners: []Listener{
			&RedirectListener{Window: c.window},
			&MessageListener{Window: c.window, Origin: c.cfg.Origin, Channel: channel},
			&UnloadListener{Window: c.window},
		},
		OnOutcome:  c.closeWidget,
		OnComplete: c.cfg.OnComplete,
		Logger:     c.log,
	})
	c.setCurrent(arb)
	if _, err := arb.Start(); err != nil {
		c.cfg.OnError(err.Error(), nil)
		return
	}
	// The page already carried a gateway return.
	if _, done := arb.Outcome(); done {
		return
	}

	var err error
	if c.cfg.Mode == ModeFrame {
		err = c.widget.CreateForm(FormConfig{ContainerID: c.cfg.ContainerID, TxnSecret: resp.TxnSecret})
	} else {
		err = c.widget.Render()
	}
	if err != nil {
		arb.Close()
		c.cfg.OnError("Novalnet SDK not loaded properly", &ErrorContext{PaymentReference: resp.PaymentID})
	}
}

func (c *Component) closeWidget(sig Signal) {
	switch sig.Kind {
	case KindTimeout:
		c.widget.CloseChildWindow(CloseReasonTimeout)
	case KindCancelled:
		if sig.Channel == ChannelUnload {
			c.widget.CloseChildWindow(CloseReasonRefresh)
			return
		}
		c.widget.CloseChildWindow(CloseReasonOutcome)
	default:
		c.widget.CloseChildWindow(CloseReasonOutcome)
	}
}

func (c *Component) setCurrent(arb *Arbitrator) {
	c.mu.Lock()
	prev := c.current
	c.current = arb
	c.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}
