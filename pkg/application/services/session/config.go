// Package session wraps the allocation tree and the weight reconciler into edit sessions
// that publish their mutations and submit all-or-nothing.
package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/infrastructure/events"
)

// Config is shared by plan and weighing sessions
type Config struct {
	Terms          entities.ContractTerms
	Catalog        *entities.Catalog
	Unit           entities.WeightUnit
	GracePeriod    time.Duration
	BatchThreshold int
	Clock          func() time.Time
	Logger         *zap.Logger
	Publisher      events.Publisher
}

func (c Config) withDefaults() Config {
	if c.Unit == "" {
		c.Unit = entities.Kilogram
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = entities.DefaultGracePeriod
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.Publisher == nil {
		c.Publisher = events.NopPublisher{}
	}
	return c
}

func publish(cfg Config, stream string, e events.Event) {
	if err := cfg.Publisher.AppendEvent(stream, e); err != nil {
		cfg.Logger.Warn("failed to publish event", zap.String("event", e.Type()), zap.Error(err))
	}
}
