package enabler

import (
	"net/url"
)

// MessageEvent is a cross-document message delivered to the page.
type MessageEvent struct {
	Origin string
	Data   interface{}
}

// Window is the page capability the listeners subscribe to.
type Window interface {
	// AddMessageListener subscribes to message events and returns an unsubscribe func.
	AddMessageListener(fn func(MessageEvent)) (remove func())
	// AddUnloadListener subscribes to page unload and returns an unsubscribe func.
	AddUnloadListener(fn func()) (remove func())
	// Location returns the current page URL.
	Location() *url.URL
	// Navigate sends the browser to target.
	Navigate(target string)
}

// Listener produces signals until detached.
type Listener interface {
	Attach(emit func(Signal)) (detach func())
}

// MessageListener forwards gateway messages. Events from any other origin
// are dropped before parsing.
type MessageListener struct {
	Window  Window
	Origin  string
	Channel Channel
}

func (l *MessageListener) Attach(emit func(Signal)) func() {
	channel := l.Channel
	if channel == "" {
		channel = ChannelFrameMessage
	}
	return l.Window.AddMessageListener(func(ev MessageEvent) {
		if l.Origin == "" || ev.Origin != l.Origin {
			return
		}
		if sig, ok := ParseMessage(ev.Data, channel); ok {
			emit(sig)
		}
	})
}

// UnloadListener reports a cancellation when the page goes away.
type UnloadListener struct {
	Window Window
}

func (l *UnloadListener) Attach(emit func(Signal)) func() {
	return l.Window.AddUnloadListener(func() {
		emit(Signal{Kind: KindCancelled, Channel: ChannelUnload})
	})
}

// RedirectListener treats a page load carrying return parameters as the outcome.
type RedirectListener struct {
	Window Window
}

func (l *RedirectListener) Attach(emit func(Signal)) func() {
	if loc := l.Window.Location(); loc != nil {
		if sig, ok := ParseReturnQuery(loc.Query()); ok {
			emit(sig)
		}
	}
	return func() {}
}
