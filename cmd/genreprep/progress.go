package main

import (
	"os"
	"sync"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/srijoni68566/Music-Genre-classification/pkg/logger"
)

// progressBar renders per-file extraction progress. The bar is created on the
// first update, once the label pass knows how many files there are. Log lines
// written to it are printed above the bar.
type progressBar struct {
	p    *mpb.Progress
	once sync.Once
	bar  *mpb.Bar
}

func newProgressBar() *progressBar {
	return &progressBar{p: mpb.New(mpb.WithWidth(64))}
}

func (b *progressBar) update(done, total int) {
	b.once.Do(func() {
		b.bar = b.p.AddBar(int64(total),
			mpb.PrependDecorators(
				decor.Name("Extracting: "),
				decor.CountersNoUnit("%d / %d"),
			),
			mpb.AppendDecorators(
				decor.Percentage(),
				decor.Name(" "),
				decor.AverageETA(decor.ET_STYLE_GO),
			),
		)
	})
	b.bar.SetCurrent(int64(done))
}

func (b *progressBar) Write(p []byte) (int, error) {
	return b.p.Write(p)
}

// finishProgress stops the bar and points the logger back at stdout.
func finishProgress(log *logger.Logger, b *progressBar, ok bool) {
	if b == nil {
		return
	}
	if b.bar != nil && (!ok || !b.bar.Completed()) {
		b.bar.Abort(false)
	}
	b.p.Wait()
	log.SetOutput(os.Stdout)
}
