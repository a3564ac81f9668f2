// Package telemetry publishes live server status and notable game moments
// to a NATS broker. Everything here is fire-and-forget: the game never
// depends on a publish succeeding.
package telemetry

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/zofiadobrowolskaa/battleship-web-protocols/game"
)

const (
	newsSubject   = "battleship.global.news"
	statusSubject = "battleship.status.dashboard"
)

// StatsSource answers the current gateway snapshot without blocking the
// event stream.
type StatsSource interface {
	Stats(ctx context.Context) (game.Stats, error)
}

type Publisher struct {
	conn *nats.Conn
}

func Connect(url string) (*Publisher, error) {
	conn, err := nats.Connect(
		url,
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(time.Second*20),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

// PublishNews implements game.NewsPublisher.
func (p *Publisher) PublishNews(message string) {
	if err := p.conn.Publish(newsSubject, []byte(message)); err != nil {
		log.Warn().Err(err).Str("subject", newsSubject).Msg("failed to publish news")
	}
}

// BroadcastStatus pushes {onlinePlayers, activeRooms, uptime} snapshots on
// a fixed interval until ctx is cancelled.
func (p *Publisher) BroadcastStatus(ctx context.Context, source StatsSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats, err := source.Stats(ctx)
			if err != nil {
				continue
			}
			data, err := json.Marshal(stats)
			if err != nil {
				continue
			}
			if err := p.conn.Publish(statusSubject, data); err != nil {
				log.Warn().Err(err).Str("subject", statusSubject).Msg("failed to publish status")
			}
		}
	}
}

func (p *Publisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}
