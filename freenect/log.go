package freenect

import (
	"go.uber.org/zap"
)

// ZapLogFunc forwards libfreenect messages to logger at the closest level.
func ZapLogFunc(logger *zap.SugaredLogger) LogFunc {
	return func(level LogLevel, msg string) {
		switch {
		case level <= LogError:
			logger.Errorw(msg, "source", "libfreenect")
		case level == LogWarning:
			logger.Warnw(msg, "source", "libfreenect")
		case level <= LogInfo:
			logger.Infow(msg, "source", "libfreenect")
		default:
			logger.Debugw(msg, "source", "libfreenect")
		}
	}
}
