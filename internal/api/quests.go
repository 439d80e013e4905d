package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/service"
	"github.com/All-Khwarizmi/nature-quest/pkg/auth"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type questRoutes struct {
	qs  service.QuestServiceI
	gen service.QuestGeneratorI
	a   *auth.WalletAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, gen service.QuestGeneratorI, a *auth.WalletAuth) {
	r := &questRoutes{qs: qs, gen: gen, a: a}

	quests := handler.Group("/quests")
	{
		public := quests.Group("/")
		public.Use(a.WalletAuthMiddleware())
		{
			public.GET("/", r.GetQuests)
			public.GET("/:quest_id", r.GetQuestByID)
		}

		admin := quests.Group("/admin")
		admin.Use(a.WalletAuthMiddleware(), a.AdminOnly())
		{
			admin.POST("/new", r.CreateQuest)
			admin.POST("/generate", r.GenerateQuest)
		}
	}
}

type questResponse struct {
	QuestID        string `json:"quest_id"`
	Title          string `json:"title"`
	Classification string `json:"classification"`
	Description    string `json:"description"`
	Reward         int    `json:"reward"`
	UserCount      int    `json:"user_count"`
	MaxUsers       *int   `json:"max_users,omitempty"`
	CreatedAt      int64  `json:"created_at"`
	ExpiresAt      *int64 `json:"expires_at,omitempty"`
}

func questResponseFrom(q *model.Quest) questResponse {
	resp := questResponse{
		QuestID:        q.ID.String(),
		Title:          q.Title,
		Classification: q.Classification,
		Description:    q.Description,
		Reward:         q.Reward,
		UserCount:      q.UserCount,
		MaxUsers:       q.MaxUsers,
		CreatedAt:      q.CreatedAt.Unix(),
	}
	if q.ExpiresAt != nil {
		unix := q.ExpiresAt.Unix()
		resp.ExpiresAt = &unix
	}
	return resp
}

func (r *questRoutes) GetQuests(c *gin.Context) {
	quests, err := r.qs.GetQuests(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]questResponse, len(quests))
	for i, q := range quests {
		response[i] = questResponseFrom(q)
	}

	c.JSON(http.StatusOK, response)
}

func (r *questRoutes) GetQuestByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	quest, err := r.qs.GetQuestByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrQuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, questResponseFrom(quest))
}

type CreateQuestRequest struct {
	Title          string `json:"title"`
	Classification string `json:"classification"`
	Description    string `json:"description"`
	Reward         int    `json:"reward"`
	MaxUsers       *int   `json:"max_users,omitempty"`
	ExpiresAt      *int64 `json:"expires_at,omitempty"`
}

func (r *questRoutes) CreateQuest(c *gin.Context) {
	log := logger.Logger()

	var req CreateQuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	quest := &model.Quest{
		Title:          req.Title,
		Classification: req.Classification,
		Description:    req.Description,
		Reward:         req.Reward,
		MaxUsers:       req.MaxUsers,
	}
	if req.ExpiresAt != nil {
		expiry := time.Unix(*req.ExpiresAt, 0).UTC()
		quest.ExpiresAt = &expiry
	}

	id, err := r.qs.CreateQuest(c.Request.Context(), quest)
	if err != nil {
		log.Error("failed to create quest", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"quest_id": id.String()})
}

func (r *questRoutes) GenerateQuest(c *gin.Context) {
	log := logger.Logger()

	quest, err := r.gen.Generate(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrNoUnusedKeywords) {
			c.JSON(http.StatusConflict, gin.H{"error": "no unused classifications left to generate from"})
			return
		}
		log.Error("failed to generate quest", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate quest"})
		return
	}

	c.JSON(http.StatusCreated, questResponseFrom(quest))
}
