package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/sirupsen/logrus"
)

type scanResult struct {
	agg       *features.Aggregator
	processed *string
}

//scan makes the single pass over path: every frame goes through localizer into a fresh aggregator,
//and to the annotator when annotate is set. Frames whose features lack one of required are not kept as vectors.
//The first localizer error ends the request.
func (p *Pipeline) scan(ctx context.Context, log *logrus.Entry, kind, path string, localizer detect.Localizer, annotate bool, required ...string) (*scanResult, error) {
	src, err := p.Open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var ann Annotator
	if annotate && p.annotate != nil {
		if ann, err = p.annotate(path, src.Properties()); err != nil {
			log.WithError(err).Warn("could not start annotated output, continuing without it")
			ann = nil
		}
	}

	agg := features.NewAggregator(p.extractor, required...)
	err = p.loop(ctx, src, localizer, agg, ann)
	p.metrics.AddFrames(kind, agg.Frames())

	res := &scanResult{agg: agg}
	if ann != nil {
		out, closeErr := ann.Close()
		p.metrics.AddDroppedFrames(ann.Dropped())

		switch {
		case err != nil:
			if closeErr == nil {
				os.Remove(out)
			}
		case closeErr != nil:
			log.WithError(closeErr).Warn("annotated output failed, analysis result unaffected")
		default:
			res.processed = &out
		}
	}

	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{"frames": agg.Frames(), "vectors": len(agg.Vectors())}).Debug("video scanned")
	return res, nil
}

func (p *Pipeline) loop(ctx context.Context, src FrameSource, localizer detect.Localizer, agg *features.Aggregator, ann Annotator) error {
	for {
		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		observations, err := localizer.Detect(frame)
		if err != nil {
			return fmt.Errorf("pipeline: frame %d: %w", frame.Index, err)
		}

		agg.Add(frame.Index, observations)
		p.countDetections(observations)

		if ann != nil {
			ann.Submit(frame, observations)
		}
	}
}

func (p *Pipeline) countDetections(observations []detect.Observation) {
	if p.metrics == nil {
		return
	}
	counts := make(map[detect.Team]int)
	for _, o := range observations {
		counts[o.Team]++
	}
	for team, n := range counts {
		p.metrics.AddDetections(team.String(), n)
	}
}
