package pipeline

import "go.uber.org/zap"

// Step describes how many items entered and left a phase.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

func (s Step) log(logger *zap.Logger) {
	logger.Info("pipeline step",
		zap.String("name", s.Name),
		zap.Int("initial", s.Initial),
		zap.Int("dropped", s.Dropped),
		zap.Int("left", s.Left),
	)
}
