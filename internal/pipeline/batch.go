package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// GenerateBatch выполняет независимые прогоны параллельно (не более workers одновременно;
// workers <= 0 - без ограничения). Результаты возвращаются в порядке params.
// Первая ошибка отменяет оставшиеся прогоны.
func GenerateBatch(ctx context.Context, gen *Generator, params []Params, workers int) ([]*Result, error) {
	results := make([]*Result, len(params))

	group, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		group.SetLimit(workers)
	}

	for i, p := range params {
		i, p := i, p
		group.Go(func() error {
			res, err := gen.Generate(ctx, p)
			if err != nil {
				return fmt.Errorf("карта %d (seed=%d): %w", i, p.Seed, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SeedRange возвращает n копий base с последовательными сидами, начиная с first
func SeedRange(base Params, first uint32, n int) []Params {
	params := make([]Params, 0, max(n, 0))
	for i := 0; i < n; i++ {
		params = append(params, base.WithSeed(first+uint32(i)))
	}
	return params
}
