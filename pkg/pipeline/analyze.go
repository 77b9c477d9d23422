package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/detect"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/formation"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/logging"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/risk"
	"github.com/sirupsen/logrus"
)

type MatchRequest struct {
	RequestID string
	VideoPath string
	Render    bool
}

//TeamReport is one team's formation assessment together with the metrics it was derived from
type TeamReport struct {
	formation.Assessment
	Metrics formation.Metrics `json:"metrics"`
}

type MatchResult struct {
	TeamA          TeamReport `json:"teamA"`
	TeamB          TeamReport `json:"teamB"`
	ProcessedVideo *string    `json:"processed_video"`
	Frames         int        `json:"frames"`
}

type RiskRequest struct {
	RequestID string
	PlayerID  string
	VideoPath string
}

type TrainRequest struct {
	RequestID string
	PlayerID  string
	VideoPath string
}

type TrainResult struct {
	PlayerID string `json:"player_id"`
	Samples  int    `json:"samples"`
	Frames   int    `json:"frames"`
}

//AnalyzeMatch localizes players by uniform color and classifies each team's formation
func (p *Pipeline) AnalyzeMatch(ctx context.Context, req MatchRequest) (res MatchResult, err error) {
	log := logging.WithRequest(p.log, req.RequestID, KindMatch).WithField("video", req.VideoPath)
	start := time.Now()
	defer func() { p.finish(log, KindMatch, start, err) }()

	if err = p.acquire(ctx); err != nil {
		return MatchResult{}, err
	}
	defer p.release()

	scanned, err := p.scan(ctx, log, KindMatch, req.VideoPath, p.Players, req.Render)
	if err != nil {
		return MatchResult{}, err
	}

	reports := make(map[detect.Team]TeamReport, len(detect.Teams))
	for _, team := range detect.Teams {
		m, a := p.Classifier.Evaluate(scanned.agg.Series(team))
		reports[team] = TeamReport{Assessment: a, Metrics: m}
		log.WithFields(logrus.Fields{"team": team.String(), "formation": a.Formation, "width": m.Width, "depth": m.Depth}).Debug("team classified")
	}

	return MatchResult{
		TeamA:          reports[detect.TeamA],
		TeamB:          reports[detect.TeamB],
		ProcessedVideo: scanned.processed,
		Frames:         scanned.agg.Frames(),
	}, nil
}

//AnalyzeRisk extracts the player's joint angles and scores them against the player's baseline.
//A player without a baseline is rejected before any frame is decoded.
func (p *Pipeline) AnalyzeRisk(ctx context.Context, req RiskRequest) (res risk.Assessment, err error) {
	playerID := strings.TrimSpace(req.PlayerID)
	log := logging.WithPlayer(logging.WithRequest(p.log, req.RequestID, KindRisk), playerID).WithField("video", req.VideoPath)
	start := time.Now()
	defer func() { p.finish(log, KindRisk, start, err) }()

	if p.poses == nil {
		return risk.Assessment{}, ErrPoseUnavailable
	}

	model, err := p.Store.Load(ctx, playerID)
	if err != nil {
		return risk.Assessment{}, err
	}

	vectors, _, err := p.poseVectors(ctx, log, KindRisk, req.VideoPath, model.Features())
	if err != nil {
		return risk.Assessment{}, err
	}

	res, err = p.Analyzer.Analyze(ctx, playerID, vectors)
	if err != nil {
		return risk.Assessment{}, err
	}

	p.metrics.RecordRiskLevel(string(res.RiskLevel))
	log.WithFields(logrus.Fields{"risk_score": res.RiskScore, "risk_level": res.RiskLevel, "anomalous": res.AnomalousFrameCount}).Info("risk assessed")
	return res, nil
}

//TrainBaseline extracts the player's joint angles from a normal-motion video and stores a fresh baseline,
//using the same extraction as AnalyzeRisk
func (p *Pipeline) TrainBaseline(ctx context.Context, req TrainRequest) (res TrainResult, err error) {
	playerID := strings.TrimSpace(req.PlayerID)
	log := logging.WithPlayer(logging.WithRequest(p.log, req.RequestID, KindTrain), playerID).WithField("video", req.VideoPath)
	start := time.Now()
	defer func() { p.finish(log, KindTrain, start, err) }()

	if playerID == "" {
		return TrainResult{}, ErrMissingPlayer
	}
	if p.poses == nil {
		return TrainResult{}, ErrPoseUnavailable
	}

	vectors, frames, err := p.poseVectors(ctx, log, KindTrain, req.VideoPath, p.Store.Features())
	if err != nil {
		return TrainResult{}, err
	}

	if err = p.Store.Fit(ctx, playerID, vectors); err != nil {
		return TrainResult{}, fmt.Errorf("pipeline: training '%s': %w", playerID, err)
	}

	return TrainResult{PlayerID: playerID, Samples: len(vectors), Frames: frames}, nil
}

//poseVectors scans path with the pose strategy, keeping one vector per frame that carries every layout feature
func (p *Pipeline) poseVectors(ctx context.Context, log *logrus.Entry, kind, path string, layout []string) ([]features.Vector, int, error) {
	if err := p.acquire(ctx); err != nil {
		return nil, 0, err
	}
	defer p.release()

	scanned, err := p.scan(ctx, log, kind, path, p.poses, false, layout...)
	if err != nil {
		return nil, 0, err
	}
	return scanned.agg.Vectors(), scanned.agg.Frames(), nil
}
