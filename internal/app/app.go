package app

import (
	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/repo/upstream"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/server"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/usecase"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

// Invoke builds the fx application around the catalog gateway and runs funcs once
// every dependency is ready.
func Invoke(funcs ...any) *fx.App {
	conf := config.MustLoad()
	if err := logger.Setup(logger.Config{
		Level:       conf.Log.Level,
		Development: conf.Log.Development,
	}); err != nil {
		logger.MustNamed("app").Warnw("keep default logger", "error", err)
	}
	log := logger.MustNamed("app")
	log.Debugw("config loaded", "config", conf)

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{Logger: log.Desugar()}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Supply(conf),
		fx.Provide(
			upstream.NewClient,
			newNormalizer,
			newImageResolver,
			newImageProcessor,
			usecase.NewCatalogUsecase,
			server.NewHandler,
		),
		fx.Invoke(funcs...),
	)
}
