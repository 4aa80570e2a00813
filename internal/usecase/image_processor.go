package usecase

import (
	"context"
	"fmt"

	"github.com/nguyentranbao-ct/storefront-gateway/internal/models"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/driveimg"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/logger/logctx"
	"github.com/nguyentranbao-ct/storefront-gateway/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// ImageProcessor attaches resolved image URLs to entities.
type ImageProcessor interface {
	// ProcessAll processes every entity concurrently. The result has the same length and
	// order as entities; an entity that fails is returned unmodified.
	ProcessAll(ctx context.Context, entities []models.Entity) []models.Entity
	Process(entity models.Entity) (models.Entity, error)
}

type imageProcessor struct {
	resolver    *driveimg.Resolver
	concurrency int
	failures    *prometheus.CounterVec
}

func NewImageProcessor(resolver *driveimg.Resolver, concurrency int) (ImageProcessor, error) {
	failures, err := util.GetCounterVec("image_process_failures_total", "reason")
	if err != nil {
		return nil, fmt.Errorf("image metrics: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &imageProcessor{
		resolver:    resolver,
		concurrency: concurrency,
		failures:    failures,
	}, nil
}

func (p *imageProcessor) ProcessAll(ctx context.Context, entities []models.Entity) []models.Entity {
	out := make([]models.Entity, len(entities))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, entity := range entities {
		g.Go(func() error {
			out[i] = p.processSafe(ctx, entity)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *imageProcessor) processSafe(ctx context.Context, entity models.Entity) (result models.Entity) {
	defer func() {
		if r := recover(); r != nil {
			p.failures.WithLabelValues("panic").Inc()
			logctx.Errorw(ctx, "image processing panicked", "id", entity[models.FieldID], "panic", r)
			result = entity
		}
	}()

	processed, err := p.Process(entity)
	if err != nil {
		p.failures.WithLabelValues("error").Inc()
		logctx.Warnw(ctx, "image processing failed", "id", entity[models.FieldID], "error", err)
		return entity
	}
	return processed
}

// Process returns a copy of entity with optimizedImageUrl, optimizedImages and per-variant
// optimizedImageUrl set. The input is never modified.
func (p *imageProcessor) Process(entity models.Entity) (models.Entity, error) {
	if entity == nil {
		return nil, nil
	}
	out, err := util.Clone(entity)
	if err != nil {
		return nil, fmt.Errorf("clone entity: %w", err)
	}

	main, err := firstImageField(out, models.FieldImageURL, models.FieldImage, models.FieldGoogleDriveID)
	if err != nil {
		return nil, err
	}
	if main != "" {
		out[models.FieldOptimizedImageURL] = p.resolver.Resolve(main)
	}

	if list, ok := out[models.FieldImages].([]any); ok {
		sources := make([]string, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] is %T, not a string", models.FieldImages, i, item)
			}
			sources[i] = s
		}
		out[models.FieldOptimizedImages] = p.resolver.ResolveAll(sources)
	}

	if raw, ok := out[models.FieldVariant].([]any); ok {
		for i, item := range raw {
			variant, ok := item.(map[string]any)
			if !ok {
				continue
			}
			src, err := firstImageField(variant, models.FieldImage, models.FieldImageURL)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", models.FieldVariant, i, err)
			}
			if src != "" {
				variant[models.FieldOptimizedImageURL] = p.resolver.Resolve(src)
			}
		}
	}

	return out, nil
}

// firstImageField returns the first non-empty value among keys. A present value that is
// not a string is an error.
func firstImageField(m map[string]any, keys ...string) (string, error) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("%s is %T, not a string", key, v)
		}
		if s != "" {
			return s, nil
		}
	}
	return "", nil
}
