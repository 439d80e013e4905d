package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/middleware"
	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/service"
	"github.com/All-Khwarizmi/nature-quest/pkg/auth"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type submissionRoutes struct {
	ss             service.SubmissionServiceI
	a              *auth.WalletAuth
	processTimeout time.Duration
}

func NewSubmissionRoutes(handler *gin.RouterGroup, ss service.SubmissionServiceI, a *auth.WalletAuth, processTimeout time.Duration) {
	r := &submissionRoutes{ss: ss, a: a, processTimeout: processTimeout}

	quests := handler.Group("/quests")
	quests.Use(a.WalletAuthMiddleware())
	{
		quests.POST("/submit", r.SubmitForValidation)
	}

	uploads := handler.Group("/uploads")
	uploads.Use(a.WalletAuthMiddleware())
	{
		uploads.GET("/:id", r.GetUpload)
		uploads.GET("/:id/ws", r.WatchUpload)
	}
}

type SubmitRequest struct {
	UserAddress        string               `json:"user_address"`
	ClassificationJSON model.Classification `json:"classification_json"`
	UploadID           string               `json:"upload_id,omitempty"`
	ImageURL           string               `json:"image_url,omitempty"`
	Season             string               `json:"season,omitempty"`
}

type SubmitResponse struct {
	Status   string `json:"status"`
	UploadID string `json:"upload_id"`
	Message  string `json:"message"`
}

// SubmitForValidation acknowledges immediately and processes the submission
// in the background; the caller polls the upload status (or watches the
// WebSocket) for the decision.
func (r *submissionRoutes) SubmitForValidation(c *gin.Context) {
	log := logger.Logger()

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !common.IsHexAddress(req.UserAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_address"})
		return
	}
	if err := req.ClassificationJSON.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid classification_json"})
		return
	}

	var uploadID uuid.UUID
	if req.UploadID != "" {
		id, err := uuid.Parse(req.UploadID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload_id"})
			return
		}
		uploadID = id
	} else {
		up, err := r.ss.CreateUpload(c.Request.Context(), req.UserAddress, req.ImageURL, req.ClassificationJSON, req.Season)
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided address"})
				return
			}
			log.Error("failed to create upload", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create upload"})
			return
		}
		uploadID = up.ID
	}

	// Fire and forget: the decision lands on the upload record, never on
	// this response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.processTimeout)
		defer cancel()

		r.ss.ProcessSubmission(ctx, req.UserAddress, req.ClassificationJSON, uploadID)

		if up, err := r.ss.GetUpload(ctx, uploadID); err == nil {
			middleware.ObserveSubmissionOutcome(string(up.Status))
		}
	}()

	c.JSON(http.StatusAccepted, SubmitResponse{
		Status:   "Processed",
		UploadID: uploadID.String(),
		Message:  "submission accepted for validation",
	})
}

type UploadResponse struct {
	ID                 string               `json:"id"`
	UserID             string               `json:"user_id"`
	QuestID            *string              `json:"quest_id,omitempty"`
	ImageURL           string               `json:"image_url"`
	ClassificationJSON model.Classification `json:"classification_json"`
	Status             string               `json:"status"`
	Season             string               `json:"season,omitempty"`
	CreatedAt          int64                `json:"created_at"`
	UpdatedAt          int64                `json:"updated_at"`
}

func uploadResponseFrom(up *model.Upload) UploadResponse {
	resp := UploadResponse{
		ID:                 up.ID.String(),
		UserID:             up.UserID.String(),
		ImageURL:           up.ImageURL,
		ClassificationJSON: up.Classification,
		Status:             string(up.Status),
		Season:             up.Season,
		CreatedAt:          up.CreatedAt.Unix(),
		UpdatedAt:          up.UpdatedAt.Unix(),
	}
	if up.QuestID != nil {
		questID := up.QuestID.String()
		resp.QuestID = &questID
	}
	return resp
}

func (r *submissionRoutes) GetUpload(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return
	}

	up, err := r.ss.GetUpload(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUploadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "upload not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, uploadResponseFrom(up))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

const watchPollInterval = time.Second

// WatchUpload streams status changes for one upload over a WebSocket and
// closes once a terminal status has been delivered.
func (r *submissionRoutes) WatchUpload(c *gin.Context) {
	log := logger.Logger()

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid upload id"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	var lastStatus model.UploadStatus
	for {
		up, err := r.ss.GetUpload(ctx, id)
		if err != nil {
			log.Error("failed to read upload during watch", zap.Error(err))
			return
		}

		if up.Status != lastStatus {
			lastStatus = up.Status

			payload, err := json.Marshal(uploadResponseFrom(up))
			if err != nil {
				log.Error("failed to marshal upload update", zap.Error(err))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Info("watch connection closed", zap.Error(err))
				return
			}

			if up.Status.Terminal() {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
