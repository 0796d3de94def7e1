package moviebot

import (
	"context"
	"time"

	"github.com/goblincore/moviebot/internal/logging"
)

// startWarmWorker runs a background goroutine that periodically refreshes
// the cached candidate lists of popular genres.
func (b *Bot) startWarmWorker(interval time.Duration, genres []string) {
	ctx, cancel := context.WithCancel(context.Background())
	b.cancelWarm = cancel
	b.warmDone = make(chan struct{})

	go func() {
		defer close(b.warmDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		b.warmCycle(ctx, genres)
		for {
			select {
			case <-ticker.C:
				b.warmCycle(ctx, genres)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// warmCycle fetches each genre straight from the content source and stores
// the raw list, so conversations hit a fresh cache.
func (b *Bot) warmCycle(ctx context.Context, genres []string) {
	log := logging.WithComponent("warm_worker")
	warmed := 0
	for _, g := range genres {
		select {
		case <-ctx.Done():
			return
		default:
		}

		genre := NormalizeGenre(g)
		n, err := b.fetcher.Refresh(ctx, genre)
		if err != nil {
			log.Warn().Err(err).Str("genre", genre).Msg("warm fetch failed")
			continue
		}
		warmed++
		log.Debug().Str("genre", genre).Int("titles", n).Msg("genre warmed")
	}
	if warmed > 0 {
		log.Info().Int("genres", warmed).Msg("candidate cache warmed")
	}
}
