package dice

import "go.uber.org/zap"

// LoggedSet wraps a StreamSet and logs every trial and uniform draw at debug level.
// Logging never changes which values are drawn.
type LoggedSet struct {
	set    *StreamSet
	names  func(i int) string
	logger *zap.Logger
}

// NewLoggedSet creates a LoggedSet. names maps a stream index to a label used in
// log entries; it may be nil, in which case the numeric index is logged.
//
// Precondition: set and logger must be non-nil.
func NewLoggedSet(set *StreamSet, names func(i int) string, logger *zap.Logger) *LoggedSet {
	return &LoggedSet{set: set, names: names, logger: logger}
}

// Roll performs a trial at probability p on stream i and logs the result.
//
// Precondition: 0 <= i < set.Len().
func (l *LoggedSet) Roll(i int, p float64) bool {
	ok := l.set.Stream(i).Roll(p)
	if ce := l.logger.Check(zap.DebugLevel, "dice trial"); ce != nil {
		ce.Write(
			l.streamField(i),
			zap.Float64("probability", p),
			zap.Bool("success", ok),
		)
	}
	return ok
}

// Real draws a uniform value from the main stream and logs it.
func (l *LoggedSet) Real() float64 {
	v := l.set.Main().Real()
	l.logger.Debug("dice uniform", zap.Float64("value", v))
	return v
}

// Set returns the wrapped StreamSet.
func (l *LoggedSet) Set() *StreamSet { return l.set }

func (l *LoggedSet) streamField(i int) zap.Field {
	if l.names == nil {
		return zap.Int("stream", i)
	}
	return zap.String("stream", l.names(i))
}
