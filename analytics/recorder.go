package analytics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sink is where the recorder writes visits. *Store implements it.
type Sink interface {
	SaveVisit(ctx context.Context, v *Visit) error
	SaveBotVisit(ctx context.Context, b *BotVisit) error
}

// RecorderConfig tunes a Recorder. Zero values pick the defaults.
type RecorderConfig struct {
	Buffer       int           // queued views before new ones are dropped (default 256)
	RepeatLimit  int           // views per visitor and document per window (default 3)
	RepeatWindow time.Duration // default 1 minute
	WriteTimeout time.Duration // per visit (default 5s)
}

func (c *RecorderConfig) setDefaults() {
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	if c.RepeatLimit <= 0 {
		c.RepeatLimit = 3
	}
	if c.RepeatWindow <= 0 {
		c.RepeatWindow = time.Minute
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

type view struct {
	documentID string
	meta       Meta
	at         time.Time
}

// Recorder records document views off the request path. RecordView never
// blocks: when the queue is full the view is dropped.
type Recorder struct {
	sink    Sink
	log     *zap.Logger
	cfg     RecorderConfig
	limiter *rateLimiter

	mu     sync.RWMutex
	closed bool
	queue  chan view
	done   chan struct{}
}

// NewRecorder starts a recorder writing to sink.
func NewRecorder(sink Sink, log *zap.Logger, cfg RecorderConfig) *Recorder {
	cfg.setDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	r := &Recorder{
		sink:    sink,
		log:     log,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RepeatLimit, cfg.RepeatWindow),
		queue:   make(chan view, cfg.Buffer),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// RecordView queues a view of documentID. It reports false when the view
// was dropped because the queue is full or the recorder is closed.
func (r *Recorder) RecordView(documentID string, m Meta) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return false
	}
	select {
	case r.queue <- view{documentID: documentID, meta: m, at: time.Now().UTC()}:
		return true
	default:
		r.log.Warn("analytics queue full, dropping view", zap.String("document", documentID))
		return false
	}
}

// Close stops accepting views and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()
	<-r.done
}

func (r *Recorder) run() {
	defer close(r.done)
	sweep := time.NewTicker(r.cfg.RepeatWindow)
	defer sweep.Stop()
	for {
		select {
		case v, ok := <-r.queue:
			if !ok {
				return
			}
			r.write(v)
		case <-sweep.C:
			r.limiter.sweep()
		}
	}
}

func (r *Recorder) write(v view) {
	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	if name := BotName(v.meta.UserAgent); name != "" {
		err := r.sink.SaveBotVisit(ctx, &BotVisit{
			DocumentID: v.documentID,
			BotName:    name,
			IPHash:     HashIP(v.meta.IP),
			Timestamp:  v.at,
		})
		if err != nil {
			r.log.Error("save bot visit", zap.String("document", v.documentID), zap.Error(err))
		}
		return
	}

	visitor := VisitorID(v.meta.IP, v.meta.UserAgent)
	if !r.limiter.allow(visitor + "|" + v.documentID) {
		return
	}
	browser, os, device := ParseUserAgent(v.meta.UserAgent)
	err := r.sink.SaveVisit(ctx, &Visit{
		DocumentID: v.documentID,
		VisitorID:  visitor,
		Browser:    browser,
		OS:         os,
		Device:     device,
		Referrer:   CleanReferrer(v.meta.Referrer),
		Timestamp:  v.at,
	})
	if err != nil {
		r.log.Error("save visit", zap.String("document", v.documentID), zap.Error(err))
	}
}
