// Package enabler drives one hosted payment attempt on the storefront side.
// Frame and pop-up messages, page unload and redirect returns are normalized
// into a Signal, and an Arbitrator reports the first one exactly once.
package enabler

import (
	"errors"
	"fmt"
)

var (
	ErrAttemptTimeout  = errors.New("enabler: payment attempt timed out")
	ErrMalformedSignal = errors.New("enabler: malformed gateway message")
	ErrAlreadyStarted  = errors.New("enabler: attempt already started")
)

// Kind classifies an outcome.
type Kind int

const (
	KindSuccess Kind = iota + 1
	KindFailure
	KindCancelled
	KindTimeout
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "Success"
	case KindFailure:
		return "Failure"
	case KindCancelled:
		return "Cancelled"
	case KindTimeout:
		return "Timeout"
	case KindError:
		return "Error"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Channel names where a signal came from.
type Channel string

const (
	ChannelFrameMessage Channel = "frame-message"
	ChannelPopupMessage Channel = "popup-message"
	ChannelUnload       Channel = "unload"
	ChannelRedirect     Channel = "redirect"
	ChannelTimer        Channel = "timer"
)

// Placeholder references used when the gateway sent no transaction id.
const (
	RefSuccess   = "success"
	RefFailed    = "failed"
	RefCancelled = "cancelled"
	RefError     = "error"
)

// Signal is the normalized outcome of one channel event.
type Signal struct {
	Kind      Kind
	Reference string
	Channel   Channel
	// Err is ErrMalformedSignal or ErrAttemptTimeout for the matching kinds.
	Err error
}

// Result is handed to the completion callback.
type Result struct {
	IsSuccess        bool    `json:"isSuccess"`
	PaymentReference *string `json:"paymentReference"`
}

// ResultOf derives the completion result. Cancellation and timeout carry
// no reference.
func ResultOf(s Signal) Result {
	r := Result{IsSuccess: s.Kind == KindSuccess}
	if s.Kind != KindCancelled && s.Kind != KindTimeout {
		ref := s.Reference
		r.PaymentReference = &ref
	}
	return r
}

// Reference returns the payment reference or "" when there is none.
func (r Result) Reference() string {
	if r.PaymentReference == nil {
		return ""
	}
	return *r.PaymentReference
}
