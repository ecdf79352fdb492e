package disclosuresvc

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mkrupp/homecase-catalog/internal/domain"
	"github.com/mkrupp/homecase-catalog/internal/infra/logging"
)

// ErrInvalidConfig is returned for a negative initial count or a step below one.
var ErrInvalidConfig = errors.New("invalid disclosure config")

// Controller tracks how many entries of the current result are visible.
// The count only grows: each signal adds Step, with no upper bound, and it is
// not shrunk when the result gets shorter.
type Controller struct {
	cfg          DisclosureConfig
	log          logging.Logger
	visibleCount int
	unsubscribe  func()
	m            sync.Mutex
}

// NewController returns a Controller showing cfg.InitialCount entries and
// subscribes it to signal. A nil signal leaves OnMoreVisible as the only trigger.
func NewController(signal Signal, cfg DisclosureConfig) (*Controller, error) {
	if cfg.InitialCount < 0 {
		return nil, fmt.Errorf("%w: initial count %d is negative", ErrInvalidConfig, cfg.InitialCount)
	}

	if cfg.Step <= 0 {
		return nil, fmt.Errorf("%w: step %d must be positive", ErrInvalidConfig, cfg.Step)
	}

	ctrl := &Controller{
		cfg:          cfg,
		log:          logging.GetLogger("svc.disclosuresvc.controller"),
		visibleCount: cfg.InitialCount,
	}

	if signal != nil {
		ctrl.unsubscribe = signal.Subscribe(ctrl.OnMoreVisible)
	}

	return ctrl, nil
}

// VisibleCount returns the current window size.
func (c *Controller) VisibleCount() int {
	c.m.Lock()
	defer c.m.Unlock()

	return c.visibleCount
}

// VisibleSlice returns the first min(VisibleCount, len(entries)) entries.
func (c *Controller) VisibleSlice(entries []domain.Entry) []domain.Entry {
	n := min(c.VisibleCount(), len(entries))
	if n < 0 {
		n = 0
	}

	return entries[:n:n]
}

// HasMore reports whether a result of total entries extends past the window.
func (c *Controller) HasMore(total int) bool {
	return c.VisibleCount() < total
}

// OnMoreVisible grows the window by one step.
func (c *Controller) OnMoreVisible() {
	c.m.Lock()
	c.visibleCount += c.cfg.Step
	count := c.visibleCount
	c.m.Unlock()

	c.log.Debug("visible count increased", "visibleCount", count)
}

// Reset shrinks the window back to its initial size.
func (c *Controller) Reset() {
	c.m.Lock()
	defer c.m.Unlock()

	c.visibleCount = c.cfg.InitialCount
}

// Close releases the signal subscription. It is safe to call more than once.
func (c *Controller) Close() {
	c.m.Lock()
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.m.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
