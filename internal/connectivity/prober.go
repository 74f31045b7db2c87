package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// ProberConfig holds configuration for reachability probing.
type ProberConfig struct {
	URL      string
	Interval time.Duration
	Timeout  time.Duration
}

// Prober checks reachability by issuing HEAD requests to a URL on an
// interval. A single failure after success reports Losing; a second
// consecutive failure reports Lost.
type Prober struct {
	cfg        ProberConfig
	httpClient *http.Client
	b          *broadcaster
	logger     *slog.Logger

	mu       sync.Mutex
	failures int
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewProber(cfg ProberConfig, logger *slog.Logger) *Prober {
	if cfg.Interval == 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Prober{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		b:          newBroadcaster(Unavailable),
		logger:     logger,
	}
}

func (p *Prober) Connected() bool {
	return p.b.current() == Available
}

func (p *Prober) Subscribe(fn func(Status)) func() {
	return p.b.subscribe(fn)
}

// Probe runs one check and publishes the resulting status.
func (p *Prober) Probe(ctx context.Context) Status {
	ok := p.reachable(ctx)

	p.mu.Lock()
	var status Status
	switch {
	case ok:
		p.failures = 0
		status = Available
	case p.failures == 0 && p.b.current() == Available:
		p.failures++
		status = Losing
	default:
		p.failures++
		if p.b.current() == Unavailable {
			status = Unavailable
		} else {
			status = Lost
		}
	}
	p.mu.Unlock()

	if p.b.publish(status) {
		p.logger.Info("connectivity changed", "status", status)
	}
	return status
}

func (p *Prober) reachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.cfg.URL, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "error", err)
		return false
	}
	resp.Body.Close()
	// 5xx counts as unreachable.
	return resp.StatusCode < 500
}

// Start probes once synchronously, then on every interval until Stop or ctx.
func (p *Prober) Start(ctx context.Context) {
	p.Probe(ctx)

	p.mu.Lock()
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	done := p.done
	p.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(p.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Probe(ctx)
			}
		}
	}()
}

// Stop halts the probe loop and waits for it to exit.
func (p *Prober) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}
