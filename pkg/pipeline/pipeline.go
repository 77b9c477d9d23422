//Package pipeline runs one analysis request end to end: open the video, localize players frame by frame,
//aggregate, then classify formations or score injury risk.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/baseline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/formation"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/logging"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/metrics"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/risk"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
	"github.com/sirupsen/logrus"
)

//Run kinds, used in logs and metric labels
const (
	KindMatch = "match"
	KindRisk  = "risk"
	KindTrain = "train"
)

//DefaultMaxConcurrent is how many requests may decode video at the same time
const DefaultMaxConcurrent = 2

//FrameSource yields decoded frames, video.Source is the production implementation
type FrameSource interface {
	Next(ctx context.Context) (video.Frame, error)
	Properties() video.Properties
	Close() error
}

//SourceOpener opens a FrameSource for a video file
type SourceOpener func(path string) (FrameSource, error)

//VideoOpener opens files with gocv, decoding at most maxFrames frames per request
func VideoOpener(maxFrames int) SourceOpener {
	return func(path string) (FrameSource, error) {
		s, err := video.Open(path, video.WithMaxFrames(maxFrames))
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

//Annotator receives every analyzed frame with its observations and produces an annotated video
type Annotator interface {
	Submit(frame video.Frame, observations []detect.Observation) bool
	Dropped() int
	Close() (string, error)
}

//AnnotatorFactory creates the annotator for one request's source video
type AnnotatorFactory func(sourcePath string, props video.Properties) (Annotator, error)

//Components are the collaborators every pipeline needs
type Components struct {
	Open       SourceOpener
	Players    detect.Localizer
	Classifier *formation.Classifier
	Analyzer   *risk.Analyzer
	Store      baseline.Store
}

type Pipeline struct {
	Components

	poses     detect.Localizer
	extractor *features.Extractor
	annotate  AnnotatorFactory
	metrics   *metrics.Metrics
	log       *logrus.Entry
	slots     chan struct{}
}

type Option func(*Pipeline)

//WithPoseLocalizer enables risk analysis and baseline training
func WithPoseLocalizer(l detect.Localizer) Option {
	return func(p *Pipeline) {
		p.poses = l
	}
}

//WithExtractor sets the feature extractor shared by training and analysis
func WithExtractor(e *features.Extractor) Option {
	return func(p *Pipeline) {
		if e != nil {
			p.extractor = e
		}
	}
}

//WithAnnotator enables annotated output for match requests asking for it
func WithAnnotator(f AnnotatorFactory) Option {
	return func(p *Pipeline) {
		p.annotate = f
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

//WithMaxConcurrent bounds how many requests run at the same time, others wait for a slot
func WithMaxConcurrent(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.slots = make(chan struct{}, n)
		}
	}
}

func New(c Components, opts ...Option) (*Pipeline, error) {
	if c.Open == nil || c.Players == nil || c.Classifier == nil || c.Analyzer == nil || c.Store == nil {
		return nil, errors.New("pipeline: missing component")
	}

	p := &Pipeline{
		Components: c,
		extractor:  features.NewExtractor(),
		log:        logging.Discard(),
		slots:      make(chan struct{}, DefaultMaxConcurrent),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.WithField("component", "pipeline")

	return p, nil
}

//PoseEnabled reports whether risk analysis and training are available
func (p *Pipeline) PoseEnabled() bool {
	return p.poses != nil
}

func (p *Pipeline) acquire(ctx context.Context) error {
	select {
	case p.slots <- struct{}{}:
		p.metrics.RunStarted()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipeline) release() {
	<-p.slots
	p.metrics.RunFinished()
}

//finish records the outcome of a run of given kind
func (p *Pipeline) finish(log *logrus.Entry, kind string, start time.Time, err error) {
	elapsed := time.Since(start)
	p.metrics.ObserveRun(kind, elapsed.Seconds())

	if err != nil {
		code := ErrorCode(err)
		p.metrics.RecordError(kind, code)
		log.WithError(err).WithFields(logrus.Fields{"code": code, "duration": elapsed.String()}).Warn("analysis failed")
		return
	}

	log.WithField("duration", elapsed.String()).Info("analysis done")
}
