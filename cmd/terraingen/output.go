package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/lawless-m/Toberboon/internal/config"
	"github.com/lawless-m/Toberboon/internal/logging"
	"github.com/lawless-m/Toberboon/internal/pipeline"
	"github.com/lawless-m/Toberboon/internal/preview"
	"github.com/lawless-m/Toberboon/internal/snapshot"
)

func runSingle(ctx context.Context, gen *pipeline.Generator, params pipeline.Params, out config.OutputConfig, stdout io.Writer) error {
	res, err := gen.Generate(ctx, params)
	if err != nil {
		return err
	}

	if !res.Cached {
		logging.Info("📊 Рельеф: высоты %.1f..%.1f, уникальных %d, интерес %.1f",
			res.Stats.Min, res.Stats.Max, res.Stats.UniqueHeights, res.Stats.Interest)
	}

	if err := writeVoxelArray(res, out.VoxelArray, stdout); err != nil {
		return err
	}

	if out.Snapshot != "" {
		if err := snapshot.SaveFile(out.Snapshot, res.Grid); err != nil {
			return err
		}
		logging.Info("💾 Снимок сетки: %s", out.Snapshot)
	}

	if out.PreviewGLB != "" {
		if err := preview.WriteGLB(res.Grid, out.PreviewGLB); err != nil {
			return err
		}
		logging.Info("🖼️ Превью glTF: %s", out.PreviewGLB)
	}
	return nil
}

func writeVoxelArray(res *pipeline.Result, path string, stdout io.Writer) error {
	if path == "" {
		if err := res.Grid.WriteVoxelArray(stdout); err != nil {
			return fmt.Errorf("ошибка вывода массива вокселей: %w", err)
		}
		_, err := fmt.Fprintln(stdout)
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ошибка создания %s: %w", path, err)
	}
	if err := res.Grid.WriteVoxelArray(f); err != nil {
		f.Close()
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("ошибка записи %s: %w", path, err)
	}

	logging.Info("📄 Массив вокселей записан в %s", path)
	return nil
}

func runBatch(ctx context.Context, gen *pipeline.Generator, base pipeline.Params, n, workers int, stdout io.Writer) error {
	logging.Info("🧮 Пакетная генерация: %d карт начиная с seed=%d", n, base.Seed)

	results, err := pipeline.GenerateBatch(ctx, gen, pipeline.SeedRange(base, base.Seed, n), workers)
	if err != nil {
		return err
	}

	for _, res := range results {
		_, err := fmt.Fprintf(stdout, "seed=%d fingerprint=%s solid=%d carved=%d interest=%.2f cached=%t\n",
			res.Params.Seed, res.Params.Fingerprint(), res.SolidFinal, res.Carved(), res.Stats.Interest, res.Cached)
		if err != nil {
			return err
		}
	}
	return nil
}

// reportResources логирует потребление памяти процессом
func reportResources() {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logging.Debug("Не удалось получить процесс: %v", err)
		return
	}

	mem, err := proc.MemoryInfo()
	if err != nil {
		logging.Debug("Не удалось получить память процесса: %v", err)
		return
	}
	logging.Info("🧠 Память процесса: %s RSS", humanize.Bytes(mem.RSS))
}
