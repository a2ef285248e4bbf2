package batch

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"slakhprep/internal/logging"
)

// Progress receives one Add per finished item.
type Progress interface {
	Add(n int)
	Finish()
}

// NewProgress returns a terminal progress bar when w is a terminal and a
// sampled logger otherwise. A nil logger with a non-terminal writer yields a
// Progress that does nothing.
func NewProgress(w io.Writer, logger *slog.Logger, label string, total int) Progress {
	if isTerminal(w) {
		return newBarProgress(w, label, total)
	}
	if logger == nil {
		return nopProgress{}
	}
	return NewLogProgress(logger, label, total)
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok || file == nil {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func newBarProgress(w io.Writer, label string, total int) *barProgress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(label),
		progressbar.OptionShowCount(),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &barProgress{bar: bar}
}

func (p *barProgress) Add(n int) { _ = p.bar.Add(n) }

func (p *barProgress) Finish() { _ = p.bar.Finish() }

// LogProgress logs completion percentages at 5% granularity.
type LogProgress struct {
	mu      sync.Mutex
	logger  *slog.Logger
	label   string
	total   int
	done    int
	sampler *logging.ProgressSampler
	started time.Time
}

// NewLogProgress constructs a LogProgress over total items.
func NewLogProgress(logger *slog.Logger, label string, total int) *LogProgress {
	return &LogProgress{
		logger:  logger,
		label:   label,
		total:   total,
		sampler: logging.NewProgressSampler(5),
		started: time.Now(),
	}
}

// Add records n more finished items.
func (p *LogProgress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done += n
	percent := -1.0
	if p.total > 0 {
		percent = float64(p.done) * 100 / float64(p.total)
	}
	if !p.sampler.ShouldLog(percent, p.label) {
		return
	}
	p.logger.Info("progress",
		logging.String("phase", p.label),
		logging.String("percent", fmt.Sprintf("%.0f", max(percent, 0))),
		logging.Int("done", p.done),
		logging.Int("total", p.total),
	)
}

// Finish logs the elapsed time.
func (p *LogProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logger.Debug("progress finished",
		logging.String("phase", p.label),
		logging.Int("done", p.done),
		logging.Duration("elapsed", time.Since(p.started)),
	)
}

type nopProgress struct{}

func (nopProgress) Add(int) {}

func (nopProgress) Finish() {}
