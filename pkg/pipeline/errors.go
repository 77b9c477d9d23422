package pipeline

import (
	"context"
	"errors"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/baseline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/features"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/video"
)

//ErrPoseUnavailable is returned by the risk and training paths when no pose model was configured
var ErrPoseUnavailable = errors.New("pose estimation unavailable")

//ErrMissingPlayer is returned when a request that needs a player id has none
var ErrMissingPlayer = errors.New("missing player id")

//Error codes reported to clients and used as metric labels
const (
	CodeUnreadableVideo  = "unreadable_video"
	CodeModelNotFound    = "model_not_found"
	CodeFeatureShape     = "feature_shape"
	CodeInsufficientData = "insufficient_data"
	CodePoseUnavailable  = "pose_unavailable"
	CodeBadRequest       = "bad_request"
	CodeCancelled        = "cancelled"
	CodeInternal         = "internal"
)

//ErrorCode classifies err into one of the Code constants
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, video.ErrUnreadableVideo):
		return CodeUnreadableVideo
	case errors.Is(err, baseline.ErrModelNotFound):
		return CodeModelNotFound
	case errors.Is(err, features.ErrFeatureShape):
		return CodeFeatureShape
	case errors.Is(err, baseline.ErrInsufficientData):
		return CodeInsufficientData
	case errors.Is(err, ErrPoseUnavailable):
		return CodePoseUnavailable
	case errors.Is(err, ErrMissingPlayer):
		return CodeBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeCancelled
	default:
		return CodeInternal
	}
}
