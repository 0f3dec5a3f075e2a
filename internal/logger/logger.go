package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New はprodならJSON、それ以外は開発用コンソール出力のロガーを返す。
func New(level string, prod bool) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if prod {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	return cfg.Build()
}

// Install はグローバルに差し替えて、戻す関数を返す
func Install(l *zap.Logger) func() {
	return zap.ReplaceGlobals(l)
}
