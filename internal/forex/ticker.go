package forex

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"forexsim/internal/websocket"
)

// Ticker periodically re-samples the quote and pushes a rate tick to every
// connected dashboard. Fetch failures are logged and skipped; the next run
// tries again.
type Ticker struct {
	rates *Client
	hub   *websocket.Hub
	cron  *cron.Cron
	log   zerolog.Logger
}

func NewTicker(rates *Client, hub *websocket.Hub, log zerolog.Logger) *Ticker {
	return &Ticker{
		rates: rates,
		hub:   hub,
		cron:  cron.New(),
		log:   log.With().Str("job", "rate-ticker").Logger(),
	}
}

func (t *Ticker) Start() error {
	if _, err := t.cron.AddFunc("@every 1m", t.refresh); err != nil {
		return err
	}
	t.cron.Start()
	return nil
}

func (t *Ticker) Stop() {
	t.cron.Stop()
}

func (t *Ticker) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	quote, err := t.rates.CurrentRate(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("skipping rate tick")
		return
	}
	t.hub.BroadcastRate(websocket.RateTick{
		Rate:      quote.Rate.StringFixedBank(4),
		Timestamp: quote.Timestamp.UTC().Format(time.RFC3339),
	})
}
