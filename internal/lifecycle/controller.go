package lifecycle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/its7amo/clean-and-green-website-sub003/internal/fetch"
	"github.com/its7amo/clean-and-green-website-sub003/internal/store"
)

// State is a controller's position in its lifecycle.
type State int

const (
	StateInstalling State = iota
	StateWaiting
	StateActivating
	StateControlling
	StateSuperseded
)

func (s State) String() string {
	switch s {
	case StateInstalling:
		return "installing"
	case StateWaiting:
		return "waiting"
	case StateActivating:
		return "activating"
	case StateControlling:
		return "controlling"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Config wires a controller generation.
type Config struct {
	// Version is the cache version baked into this generation.
	Version string
	// Origin is the upstream base URL requests are resolved against.
	Origin *url.URL
	// Manifest lists the absolute paths pre-cached at install time.
	Manifest []string
	// Rule is the caching eligibility rule for runtime write-through.
	Rule fetch.Rule
	// Store holds all cache generations.
	Store store.Store
	// Registry is the single-owner active-interceptor handle.
	Registry *Registry
	// Transport performs upstream requests; nil means http.DefaultTransport.
	Transport http.RoundTripper
	// Metrics receives interceptor counters.
	Metrics *fetch.Metrics
}

// Controller drives one generation through install, activation and control.
type Controller struct {
	cfg         Config
	id          string
	mu          sync.Mutex
	state       State
	handle      store.Handle
	interceptor *fetch.Interceptor
}

func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:   cfg,
		id:    uuid.NewString(),
		state: StateInstalling,
	}
}

func (c *Controller) ID() string      { return c.id }
func (c *Controller) Version() string { return c.cfg.Version }

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	from := c.state
	c.state = s
	c.mu.Unlock()
	logrus.Debugf("Generation %s: %s -> %s", c.id, from, s)
}

// Interceptor returns this generation's interceptor once installed.
func (c *Controller) Interceptor() *fetch.Interceptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.interceptor
}

// Install opens the store under this generation's version and pre-caches
// the manifest. Any pre-cache failure aborts the install: an incomplete
// baseline cache is a deployment defect, so the prior generation must stay
// in control.
func (c *Controller) Install(ctx context.Context) error {
	logrus.Infof("Installing generation %s (version %s)", c.id, c.cfg.Version)

	handle, err := c.cfg.Store.Open(c.cfg.Version)
	if err != nil {
		return fmt.Errorf("install: %w", err)
	}
	c.handle = handle

	for _, path := range c.cfg.Manifest {
		if err := c.precache(ctx, path); err != nil {
			return fmt.Errorf("install: pre-caching %s: %w", path, err)
		}
	}

	c.mu.Lock()
	c.interceptor = fetch.NewInterceptor(handle, c.cfg.Rule, c.cfg.Transport, c.cfg.Metrics)
	c.mu.Unlock()
	c.setState(StateWaiting)
	logrus.Infof("Installed generation %s: %d manifest entries pre-cached", c.id, len(c.cfg.Manifest))
	return nil
}

func (c *Controller) precache(ctx context.Context, path string) error {
	u := c.cfg.Origin.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	transport := c.cfg.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	resp, err := transport.RoundTrip(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return c.handle.Put(store.Key(http.MethodGet, u.String()), store.Snapshot{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	})
}

// Activate reconciles superseded generations and takes control of traffic.
// The normal waiting period is skipped deliberately: activation may run as
// soon as install succeeds, trading brief dual-generation overlap for
// faster rollout of fixes. No request is served by this generation before
// reconciliation finishes.
func (c *Controller) Activate() error {
	if state := c.State(); state != StateWaiting {
		return fmt.Errorf("cannot activate generation %s from state %s", c.id, state)
	}
	c.setState(StateActivating)
	logrus.Infof("Activating generation %s (version %s)", c.id, c.cfg.Version)

	if err := store.NewReconciler(c.cfg.Store).Reconcile(c.cfg.Version); err != nil {
		// stale generations survive until the next activation retries them
		logrus.Errorf("Reconciliation incomplete for version %s: %v", c.cfg.Version, err)
	}

	c.cfg.Registry.claim(c)
	c.setState(StateControlling)
	return nil
}

// supersede marks this generation as revoked. The registry has already
// routed traffic away; in-flight writes finish against this generation's
// own store harmlessly.
func (c *Controller) supersede() {
	c.setState(StateSuperseded)
	logrus.Infof("Generation %s superseded", c.id)
	if ic := c.Interceptor(); ic != nil {
		go ic.Close()
	}
}
