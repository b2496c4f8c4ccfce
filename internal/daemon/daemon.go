// Package daemon keeps a host's inventory current on the collector: it
// pushes on a fixed interval and on refresh commands picked up by polling.
package daemon

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/go-tangra/go-tangra-osinfo/internal/collector"
	"github.com/go-tangra/go-tangra-osinfo/internal/convert"
)

// Config holds daemon-mode configuration.
type Config struct {
	ClientID     string
	Version      string
	PushInterval time.Duration
	PollWait     time.Duration
}

type Collector interface {
	Collect(ctx context.Context) (*collector.Inventory, error)
}

type Sender interface {
	Send(ctx context.Context, inv *collector.Inventory) (*convert.SubmitReply, error)
	Poll(ctx context.Context, clientID, version string, wait time.Duration) ([]convert.Command, error)
}

const (
	baseBackoff     = 1 * time.Second
	maxBackoff      = 2 * time.Minute
	defaultPollWait = 25 * time.Second
)

type daemon struct {
	cfg  Config
	col  Collector
	snd  Sender
	log  logrus.FieldLogger
	mu   sync.Mutex
	wait func(ctx context.Context, d time.Duration) bool
}

// Run performs an initial collect-and-send, then pushes every
// cfg.PushInterval and polls the collector for commands until ctx is done.
func Run(ctx context.Context, cfg Config, col Collector, snd Sender, log logrus.FieldLogger) error {
	if cfg.PollWait <= 0 {
		cfg.PollWait = defaultPollWait
	}
	d := &daemon{
		cfg:  cfg,
		col:  col,
		snd:  snd,
		log:  log.WithField("package", "daemon"),
		wait: sleep,
	}
	return d.run(ctx)
}

func (d *daemon) run(ctx context.Context) error {
	if err := d.collectAndSend(ctx); err != nil {
		return fmt.Errorf("initial inventory submit: %w", err)
	}
	d.log.WithField("client_id", d.cfg.ClientID).Info("Initial inventory submitted; entering daemon mode")

	var g errgroup.Group
	g.Go(func() error {
		d.pushLoop(ctx)
		return nil
	})
	g.Go(func() error {
		d.pollLoop(ctx)
		return nil
	})
	_ = g.Wait()

	d.log.Info("Daemon shutting down")
	return nil
}

func (d *daemon) pushLoop(ctx context.Context) {
	if d.cfg.PushInterval <= 0 {
		return
	}
	ticker := time.NewTicker(d.cfg.PushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.collectAndSend(ctx); err != nil && ctx.Err() == nil {
				d.log.WithError(err).Error("Scheduled push failed")
			}
		}
	}
}

func (d *daemon) pollLoop(ctx context.Context) {
	attempt := 0
	for ctx.Err() == nil {
		cmds, err := d.snd.Poll(ctx, d.cfg.ClientID, d.cfg.Version, d.cfg.PollWait)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			attempt++
			backoff := calcBackoff(attempt)
			d.log.WithError(err).Warnf("Poll failed (attempt %d); retrying in %s", attempt, backoff)
			if !d.wait(ctx, backoff) {
				return
			}
			continue
		}
		attempt = 0

		for _, cmd := range cmds {
			d.handle(ctx, cmd)
		}
	}
}

func (d *daemon) handle(ctx context.Context, cmd convert.Command) {
	log := d.log.WithField("command_id", cmd.ID)
	switch cmd.Type {
	case convert.CommandRefresh:
		log.Info("Received refresh command")
		if err := d.collectAndSend(ctx); err != nil {
			log.WithError(err).Error("Refresh failed")
			return
		}
		log.Info("Refresh complete; inventory re-submitted")
	default:
		log.Warnf("Unknown command type %q, ignoring", cmd.Type)
	}
}

// collectAndSend sends whatever was collected; collection errors only
// leave gaps in the inventory.
func (d *daemon) collectAndSend(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	inv, err := d.col.Collect(ctx)
	if err != nil {
		d.log.WithError(err).Warn("Collect finished with errors")
	}
	if inv == nil {
		return fmt.Errorf("collect: %w", err)
	}

	reply, err := d.snd.Send(ctx, inv)
	if err != nil {
		return err
	}
	d.log.WithField("id", reply.ID).Debug("Inventory submitted")
	return nil
}

func calcBackoff(attempt int) time.Duration {
	if attempt > 16 {
		return maxBackoff
	}
	d := baseBackoff * time.Duration(math.Pow(2, float64(attempt-1)))
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
