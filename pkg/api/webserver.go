package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chenBenjamin97/pitch-analyzer/pkg/logging"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/pipeline"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/risk"
	"github.com/chenBenjamin97/pitch-analyzer/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

//Analyzer is the part of the pipeline the web server drives
type Analyzer interface {
	AnalyzeMatch(ctx context.Context, req pipeline.MatchRequest) (pipeline.MatchResult, error)
	AnalyzeRisk(ctx context.Context, req pipeline.RiskRequest) (risk.Assessment, error)
	TrainBaseline(ctx context.Context, req pipeline.TrainRequest) (pipeline.TrainResult, error)
}

//Settings configure the router
type Settings struct {
	UploadsDir     string
	ProcessedDir   string
	RateLimit      float64
	RateBurst      int
	MaxUploadBytes int64
	Metrics        http.Handler //served on /metrics when set
}

type server struct {
	analyzer Analyzer
	settings Settings
	log      *logrus.Entry
}

//SetRouter builds the gin engine serving the analysis endpoints
func SetRouter(analyzer Analyzer, settings Settings, log *logrus.Entry) *gin.Engine {
	if log == nil {
		log = logging.Discard()
	}
	s := &server{analyzer: analyzer, settings: settings, log: log.WithField("component", "api")}

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), requestLogger(s.log))

	r.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if settings.Metrics != nil {
		r.GET("/metrics", gin.WrapH(settings.Metrics))
	}

	apiRoutes := r.Group("/api")

	apiRoutes.GET("/processed-videos", func(ctx *gin.Context) {
		if names, err := utils.ListDir(s.settings.ProcessedDir); err != nil {
			_ = ctx.Error(err)
			abortWithError(ctx, http.StatusInternalServerError, pipeline.CodeInternal, "could not list processed videos")
		} else {
			ctx.JSON(http.StatusOK, names)
		}
	})

	apiRoutes.GET("/play", s.play)

	analysis := apiRoutes.Group("")
	analysis.Use(rateLimit(settings.RateLimit, settings.RateBurst), limitBody(settings.MaxUploadBytes))
	analysis.POST("/analyze-match", s.analyzeMatch)
	analysis.POST("/analyze-risk", s.analyzeRisk)
	analysis.POST("/upload-baseline", s.uploadBaseline)

	return r
}

func (s *server) play(ctx *gin.Context) {
	videoName := ctx.Query("name")
	if videoName == "" {
		abortWithError(ctx, http.StatusBadRequest, codeBadRequest, "missing 'name' url parameter")
		return
	}
	if utils.SafeBase(videoName) != videoName {
		abortWithError(ctx, http.StatusBadRequest, codeBadRequest, "invalid video name")
		return
	}

	videoPath := path.Join(s.settings.ProcessedDir, videoName)
	if _, err := os.Stat(videoPath); err != nil {
		if os.IsNotExist(err) {
			abortWithError(ctx, http.StatusNotFound, "not_found", fmt.Sprintf("no processed video '%s'", videoName))
		} else {
			_ = ctx.Error(err)
			abortWithError(ctx, http.StatusInternalServerError, pipeline.CodeInternal, "could not read video")
		}
		return
	}

	if strings.EqualFold(filepath.Ext(videoName), ".mp4") {
		ctx.Header("Content-Type", "video/mp4")
	} else {
		ctx.Header("Content-Type", "video/x-msvideo")
	}
	http.ServeFile(ctx.Writer, ctx.Request, videoPath)
}

//saveUpload stores the multipart "file" field as <uuid>-<basename> under the uploads directory.
//The caller removes it once analyzed.
func (s *server) saveUpload(ctx *gin.Context) (string, bool) {
	fHeader, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(ctx, http.StatusRequestEntityTooLarge, codeBadRequest, "video too large")
			return "", false
		}
		abortWithError(ctx, http.StatusBadRequest, codeBadRequest, "missing 'file' form field")
		return "", false
	}
	if s.settings.MaxUploadBytes > 0 && fHeader.Size > s.settings.MaxUploadBytes {
		abortWithError(ctx, http.StatusRequestEntityTooLarge, codeBadRequest, "video too large")
		return "", false
	}

	base := utils.SafeBase(fHeader.Filename)
	if base == "" || !utils.IsVideoFile(base) {
		abortWithError(ctx, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("unsupported video file '%s'", fHeader.Filename))
		return "", false
	}

	dst := filepath.Join(s.settings.UploadsDir, uuid.New().String()+"-"+base)
	if err := ctx.SaveUploadedFile(fHeader, dst); err != nil {
		_ = ctx.Error(fmt.Errorf("api: saving upload '%s': %w", dst, err))
		abortWithError(ctx, http.StatusInternalServerError, pipeline.CodeInternal, "could not store upload")
		return "", false
	}

	s.log.WithFields(logrus.Fields{"request_id": ctx.GetString(requestIDKey), "name": fHeader.Filename, "size": fHeader.Size}).Debug("received new file")
	return dst, true
}

func (s *server) removeUpload(ctx *gin.Context, uploadPath string) {
	if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
		s.log.WithError(err).WithField("request_id", ctx.GetString(requestIDKey)).Warn("could not remove upload")
	}
}

func (s *server) analyzeMatch(ctx *gin.Context) {
	render := false
	if v := ctx.PostForm("render"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			abortWithError(ctx, http.StatusBadRequest, codeBadRequest, "'render' must be a boolean")
			return
		}
		render = b
	}

	uploadPath, ok := s.saveUpload(ctx)
	if !ok {
		return
	}
	defer s.removeUpload(ctx, uploadPath)

	res, err := s.analyzer.AnalyzeMatch(ctx.Request.Context(), pipeline.MatchRequest{
		RequestID: ctx.GetString(requestIDKey),
		VideoPath: uploadPath,
		Render:    render,
	})
	if err != nil {
		abortWithAnalysisError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "analysis": res})
}

//playerID reads the required player_id form field
func playerID(ctx *gin.Context) (string, bool) {
	id := strings.TrimSpace(ctx.PostForm("player_id"))
	if id == "" {
		abortWithError(ctx, http.StatusBadRequest, codeBadRequest, "missing 'player_id' form field")
		return "", false
	}
	return id, true
}

func (s *server) analyzeRisk(ctx *gin.Context) {
	id, ok := playerID(ctx)
	if !ok {
		return
	}

	uploadPath, ok := s.saveUpload(ctx)
	if !ok {
		return
	}
	defer s.removeUpload(ctx, uploadPath)

	res, err := s.analyzer.AnalyzeRisk(ctx.Request.Context(), pipeline.RiskRequest{
		RequestID: ctx.GetString(requestIDKey),
		PlayerID:  id,
		VideoPath: uploadPath,
	})
	if err != nil {
		abortWithAnalysisError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "analysis": res})
}

func (s *server) uploadBaseline(ctx *gin.Context) {
	id, ok := playerID(ctx)
	if !ok {
		return
	}

	uploadPath, ok := s.saveUpload(ctx)
	if !ok {
		return
	}
	defer s.removeUpload(ctx, uploadPath)

	res, err := s.analyzer.TrainBaseline(ctx.Request.Context(), pipeline.TrainRequest{
		RequestID: ctx.GetString(requestIDKey),
		PlayerID:  id,
		VideoPath: uploadPath,
	})
	if err != nil {
		abortWithAnalysisError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"status": "success", "message": "Baseline trained successfully", "samples": res.Samples})
}
