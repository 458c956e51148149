package engine

import (
	"context"
	"image"
	"sync"

	"github.com/pkg/errors"

	"github.com/ivlev/pixelsculptor/internal/logging"
	"github.com/ivlev/pixelsculptor/internal/raster"
	"github.com/ivlev/pixelsculptor/internal/source"
)

// BatchItem is the outcome for one entry of a multi-image source.
type BatchItem struct {
	Index  int
	Name   string
	Result *Result
	Err    error
}

// RunBatch runs every entry of src against target. Entries are spread over
// cfg.Workers goroutines and each one transports sequentially. sink is called
// from the calling goroutine, once per entry, in completion order. Per-entry
// failures are reported through sink and do not stop the batch.
func (p *Pipeline) RunBatch(ctx context.Context, src source.Source, target image.Image, sink func(BatchItem)) error {
	if err := p.prepare(); err != nil {
		return err
	}
	count := src.Count()
	if count == 0 {
		return errors.New("source contains no images")
	}
	tgt := raster.FromImage(target)

	numWorkers := max(p.cfg.Workers, 1)
	if numWorkers > count {
		numWorkers = count
	}

	jobs := make(chan int, count)
	results := make(chan BatchItem, count)

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				item := BatchItem{Index: i, Name: src.Name(i)}
				if err := ctx.Err(); err != nil {
					item.Err = err
					results <- item
					continue
				}
				img, err := src.Load(i)
				if err != nil {
					item.Err = errors.Wrapf(err, "loading %s", item.Name)
					results <- item
					continue
				}
				item.Result, item.Err = p.run(ctx, raster.FromImage(img), tgt, 1)
				results <- item
			}
		}()
	}

	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	done, failed := 0, 0
	for item := range results {
		done++
		if item.Err != nil {
			failed++
			logging.Errorf("[!] %s: %v", item.Name, item.Err)
		} else {
			logging.Infof("[>] Ready: %d/%d %s score=%.4f", done, count, item.Name, item.Result.Score)
		}
		if sink != nil {
			sink(item)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if failed == count {
		return errors.Errorf("all %d images failed", count)
	}
	return nil
}
