package widget

import (
	"sync"

	"github.com/jafarshop/ecostore/internal/config"
	"github.com/jafarshop/ecostore/internal/domain"
)

// Host supplies the context of the page the widget is shown on
type Host interface {
	PageContext() domain.PageContext
}

// Reporter is implemented by hosts whose page posts its own context
type Reporter interface {
	Report(page domain.PageContext)
}

// StaticHost always returns the configured page
type StaticHost struct {
	page domain.PageContext
}

// NewStaticHost creates a host for running without a browser page
func NewStaticHost(p config.StandalonePage) *StaticHost {
	return &StaticHost{page: domain.PageContext{
		URL:      p.URL,
		Viewport: domain.Viewport{Width: p.ViewportWidth, Height: p.ViewportHeight},
	}}
}

func (h *StaticHost) PageContext() domain.PageContext {
	return h.page
}

// EmbeddedHost returns the context last reported by the embedding page,
// or the configured page until one arrives
type EmbeddedHost struct {
	mu   sync.RWMutex
	page domain.PageContext
}

// NewEmbeddedHost creates a host fed by the page
func NewEmbeddedHost(fallback config.StandalonePage) *EmbeddedHost {
	return &EmbeddedHost{page: NewStaticHost(fallback).page}
}

func (h *EmbeddedHost) PageContext() domain.PageContext {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.page
}

// Report records the context posted by the page. Empty fields keep their
// previous value.
func (h *EmbeddedHost) Report(page domain.PageContext) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if page.URL != "" {
		h.page.URL = page.URL
	}
	if page.DOMSnapshot != "" {
		h.page.DOMSnapshot = page.DOMSnapshot
	}
	if page.Viewport.Width > 0 && page.Viewport.Height > 0 {
		h.page.Viewport = page.Viewport
	}
}

// NewHost picks the host for the configured mode
func NewHost(cfg config.WidgetConfig) Host {
	if cfg.HostMode == config.HostStandalone {
		return NewStaticHost(cfg.Standalone)
	}
	return NewEmbeddedHost(cfg.Standalone)
}
