package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/combatsim/internal/game/combat"
)

// ResolutionLogger is a combat.Observer that writes one debug entry per resolution.
type ResolutionLogger struct {
	logger *zap.Logger
}

// NewResolutionLogger wraps logger.
//
// Precondition: logger must be non-nil.
func NewResolutionLogger(logger *zap.Logger) *ResolutionLogger {
	return &ResolutionLogger{logger: logger}
}

// Observe logs rec at debug level. It is a no-op when debug is disabled.
func (r *ResolutionLogger) Observe(rec combat.Record) {
	ce := r.logger.Check(zapcore.DebugLevel, "attack resolved")
	if ce == nil {
		return
	}
	ce.Write(
		zap.String("action", rec.Action),
		zap.Stringer("strategy", rec.Strategy),
		zap.Int("level_delta", rec.Target.LevelDelta),
		zap.Bool("shield", rec.Target.Shield),
		zap.Float64("hit", rec.Stats.Hit),
		zap.Float64("expertise", rec.Stats.Expertise),
		zap.Float64("crit", rec.Stats.Crit),
		zap.Float64("haste", rec.Stats.Haste),
		zap.Object("chances", chancesMarshaler(rec.Chances)),
		zap.Stringer("table", rec.Table),
		zap.Stringer("result", rec.Result),
	)
}

type chancesMarshaler combat.Chances

func (c chancesMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddFloat64("miss", c.Miss)
	enc.AddFloat64("dodge", c.Dodge)
	enc.AddFloat64("parry", c.Parry)
	enc.AddFloat64("glance", c.Glance)
	enc.AddFloat64("block", c.Block)
	enc.AddFloat64("crit", c.Crit)
	return nil
}
