package app

import (
	"github.com/nguyentranbao-ct/storefront-gateway/internal/config"
	"github.com/nguyentranbao-ct/storefront-gateway/internal/usecase"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/driveimg"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/normalizer"
)

func newNormalizer() *normalizer.ResponseNormalizer {
	return normalizer.NewResponseNormalizer(logger.MustNamed("normalizer"))
}

func newImageResolver(conf *config.Config) *driveimg.Resolver {
	return driveimg.NewResolver(conf.Image.Fallback)
}

func newImageProcessor(resolver *driveimg.Resolver, conf *config.Config) (usecase.ImageProcessor, error) {
	return usecase.NewImageProcessor(resolver, conf.Image.Concurrency)
}
