package pkg

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelErrOnly
	LogLevelInfo
	LogLevelDebug
)

var (
	log_level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	logger    = newLogger()
)

func newLogger() *zap.SugaredLogger {
	encoder_config := zap.NewDevelopmentEncoderConfig()
	encoder_config.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder_config.EncodeCaller = zapcore.ShortCallerEncoder
	encoder_config.ConsoleSeparator = " "

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoder_config), zapcore.Lock(os.Stderr), log_level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

func SetLogLevel(level LogLevel) {
	switch level {
	case LogLevelNone:
		// fatal logs still exit the process, they just don't print
		log_level.SetLevel(zapcore.FatalLevel + 1)
	case LogLevelErrOnly:
		log_level.SetLevel(zapcore.ErrorLevel)
	case LogLevelInfo:
		log_level.SetLevel(zapcore.InfoLevel)
	case LogLevelDebug:
		log_level.SetLevel(zapcore.DebugLevel)
	}
	logger.Infoln("log level set to", level)
}

// Logger exposes the underlying zap logger for callers that want structured fields.
func Logger() *zap.SugaredLogger { return logger }

func InfoLog(args ...any)  { logger.Infoln(args...) }
func ErrorLog(args ...any) { logger.Errorln(args...) }
func FatalLog(args ...any) { logger.Fatalln(args...) }
func WarnLog(args ...any)  { logger.Warnln(args...) }
func DebugLog(args ...any) { logger.Debugln(args...) }
