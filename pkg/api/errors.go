package api

import (
	"net/http"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/pipeline"
	"github.com/gin-gonic/gin"
)

//statusClientClosedRequest is reported when the client went away before the analysis finished
const statusClientClosedRequest = 499

//codeBadRequest is used for malformed requests
const codeBadRequest = pipeline.CodeBadRequest

var statusByCode = map[string]int{
	pipeline.CodeUnreadableVideo:  http.StatusUnprocessableEntity,
	pipeline.CodeModelNotFound:    http.StatusNotFound,
	pipeline.CodeFeatureShape:     http.StatusUnprocessableEntity,
	pipeline.CodeInsufficientData: http.StatusUnprocessableEntity,
	pipeline.CodePoseUnavailable:  http.StatusServiceUnavailable,
	pipeline.CodeBadRequest:       http.StatusBadRequest,
	pipeline.CodeCancelled:        statusClientClosedRequest,
	pipeline.CodeInternal:         http.StatusInternalServerError,
}

type errorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func abortWithError(ctx *gin.Context, status int, code, message string) {
	ctx.AbortWithStatusJSON(status, errorResponse{Status: "error", Code: code, Message: message})
}

//abortWithAnalysisError maps a pipeline error to its status. Internal errors don't leak their text.
func abortWithAnalysisError(ctx *gin.Context, err error) {
	code := pipeline.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if code == pipeline.CodeInternal {
		message = "internal error"
	}

	_ = ctx.Error(err)
	abortWithError(ctx, status, code, message)
}
