package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lysyi3m/rss-reader/app/feed"
	"github.com/lysyi3m/rss-reader/app/state"
)

const (
	DefaultPollInterval = 2000 * time.Millisecond
	taskTimeout         = time.Minute
	queueSize           = 100
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler owns the poll loop and a worker pool that drains add-feed
// submissions. A poll cycle starts only after the previous one settled and
// the interval elapsed, so cycles never overlap on their own.
type Scheduler struct {
	store            *state.Store
	fetcher          FeedFetcher
	parser           FeedParser
	validator        FeedValidator
	contentExtractor ArticleExtractor
	ids              IDGenerator
	interval         time.Duration
	workerCount      int
	after            func(time.Duration) <-chan time.Time
	epoch            atomic.Uint64
	ctx              context.Context
	cancel           context.CancelFunc
	wg               sync.WaitGroup
	taskQueue        chan TaskInterface
}

func NewScheduler(store *state.Store, fetcher FeedFetcher, parser FeedParser, validator FeedValidator,
	contentExtractor ArticleExtractor, ids IDGenerator, interval time.Duration, workerCount int) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if workerCount <= 0 {
		workerCount = 1
	}
	if ids == nil {
		ids = UUIDGenerator{}
	}

	return &Scheduler{
		store:            store,
		fetcher:          fetcher,
		parser:           parser,
		validator:        validator,
		contentExtractor: contentExtractor,
		ids:              ids,
		interval:         interval,
		workerCount:      workerCount,
		after:            time.After,
		ctx:              ctx,
		cancel:           cancel,
		taskQueue:        make(chan TaskInterface, queueSize),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-s.after(s.interval):
				s.RunCycle(s.ctx)
			}
		}
	}()

	slog.Debug("Scheduler started", "workers", s.workerCount, "interval", s.interval)
}

// Stop cancels the poll loop and in-flight fetches and waits for the
// workers to exit.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
	}

	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// SubmitURL queues an add-feed attempt for rawURL and returns immediately.
func (s *Scheduler) SubmitURL(rawURL string) error {
	return s.EnqueueTask(s.newAddFeedTask(rawURL))
}

// AddFeed runs an add-feed attempt for rawURL on the calling goroutine.
func (s *Scheduler) AddFeed(ctx context.Context, rawURL string) error {
	return s.executeTask(ctx, -1, s.newAddFeedTask(rawURL))
}

// ExtractContent fetches and extracts the full article behind postID.
func (s *Scheduler) ExtractContent(ctx context.Context, postID string) (*feed.Article, error) {
	task := NewExtractContentTask(postID, s.store, s.fetcher, s.contentExtractor)
	if err := s.executeTask(ctx, -1, task); err != nil {
		return nil, err
	}
	return task.Article, nil
}

// RunCycle polls every tracked feed concurrently and returns once all of
// them settled. It returns the number of posts merged. Starting a cycle
// outdates any cycle still in flight.
func (s *Scheduler) RunCycle(ctx context.Context) int {
	epoch := s.epoch.Add(1)
	feeds := s.store.Feeds()
	start := time.Now()

	trackedFeeds.Set(float64(len(feeds)))

	var wg sync.WaitGroup
	var added atomic.Int64
	for _, tracked := range feeds {
		task := NewPollFeedTask(tracked, epoch, &s.epoch, s.store, s.fetcher, s.parser, s.ids)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.executeTask(ctx, -1, task); err == nil {
				added.Add(int64(task.Added()))
			}
		}()
	}
	wg.Wait()

	pollCycles.Inc()
	pollCycleDuration.Observe(time.Since(start).Seconds())

	slog.Debug("Poll cycle settled",
		"epoch", epoch,
		"feeds", len(feeds),
		"new", added.Load(),
		"duration", time.Since(start))

	return int(added.Load())
}

func (s *Scheduler) newAddFeedTask(rawURL string) *AddFeedTask {
	return NewAddFeedTask(rawURL, s.store, s.validator, s.fetcher, s.parser, s.ids)
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task := <-s.taskQueue:
			s.executeTask(s.ctx, id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

// executeTask runs task with a bounded context. A panic inside the task is
// reported as an Unknown failure instead of taking the loop down.
func (s *Scheduler) executeTask(ctx context.Context, workerID int, task TaskInterface) (err error) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(ctx, taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = feed.NewError(feed.ErrorKindUnknown, fmt.Errorf("task panicked: %v", r))
			slog.Error("Task panicked", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "panic", r, "stack", string(debug.Stack()))
			s.reportPanic(task)
		}
	}()

	err = task.Execute(taskCtx)

	if err != nil {
		slog.Warn("Task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "feed", task.GetFeedURL(), "kind", string(feed.KindOf(err)), "error", err)
	}

	return err
}

func (s *Scheduler) reportPanic(task TaskInterface) {
	process := state.LoadingProcess{Status: state.StatusFailed, Error: feed.ErrorKindUnknown}

	switch task.GetType() {
	case TaskTypePollFeed:
		process.FeedURL = task.GetFeedURL()
	case TaskTypeExtractContent:
		return
	}

	s.store.SetLoadingProcess(process)
	fetchFailures.WithLabelValues(string(task.GetType()), string(feed.ErrorKindUnknown)).Inc()
}
