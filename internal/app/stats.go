package app

import (
	"time"

	"github.com/loov/hrtime"

	"github.com/vkngwrapper/breakable-toy/internal/logging"
)

type statsSummary struct {
	Frames       int
	Elapsed      time.Duration
	AverageFrame time.Duration
}

func (s statsSummary) FPS() float64 {
	if s.Elapsed <= 0 {
		return 0
	}
	return float64(s.Frames) / s.Elapsed.Seconds()
}

// frameStats accumulates frame times and reports them once per interval.
// A non-positive interval turns reporting off.
type frameStats struct {
	log      *logging.Logger
	interval time.Duration
	now      func() time.Duration

	windowStart time.Duration
	frames      int
	frameTime   time.Duration
}

func newFrameStats(interval time.Duration, log *logging.Logger) *frameStats {
	return newFrameStatsWithClock(interval, log, hrtime.Now)
}

func newFrameStatsWithClock(interval time.Duration, log *logging.Logger, now func() time.Duration) *frameStats {
	return &frameStats{
		log:         log,
		interval:    interval,
		now:         now,
		windowStart: now(),
	}
}

func (s *frameStats) begin() time.Duration {
	return s.now()
}

// end records a frame that started at start. It returns the summary when
// the current interval is over.
func (s *frameStats) end(start time.Duration) (statsSummary, bool) {
	if s.interval <= 0 {
		return statsSummary{}, false
	}

	t := s.now()
	s.frames++
	s.frameTime += t - start

	elapsed := t - s.windowStart
	if elapsed < s.interval {
		return statsSummary{}, false
	}

	summary := statsSummary{
		Frames:       s.frames,
		Elapsed:      elapsed,
		AverageFrame: s.frameTime / time.Duration(s.frames),
	}
	s.log.Debugf("%d frames in %s (%.1f fps), average frame time %s",
		summary.Frames, summary.Elapsed, summary.FPS(), summary.AverageFrame)

	s.windowStart = t
	s.frames = 0
	s.frameTime = 0
	return summary, true
}
