package api

import (
	"errors"
	"net/http"

	"github.com/All-Khwarizmi/nature-quest/internal/model"
	"github.com/All-Khwarizmi/nature-quest/internal/service"
	"github.com/All-Khwarizmi/nature-quest/pkg/auth"
	"github.com/All-Khwarizmi/nature-quest/pkg/logger"
	"go.uber.org/zap"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

type userRoutes struct {
	us service.UserServiceI
	a  *auth.WalletAuth
}

func NewUserRoutes(handler *gin.RouterGroup, us service.UserServiceI, a *auth.WalletAuth) {
	r := &userRoutes{us: us, a: a}
	h := handler.Group("/users")
	h.Use(a.WalletAuthMiddleware())
	{
		h.POST("/", r.GetOrCreateUser)
		h.GET("/:address", r.GetUserByAddress)
	}
}

type RegisterUserRequest struct {
	Address string `json:"address"`
}

type userResponse struct {
	ID                   string   `json:"id"`
	Address              string   `json:"address"`
	PendingQuests        []string `json:"pending_quests"`
	CompletedQuests      []string `json:"completed_quests"`
	TotalQuestsCompleted int      `json:"total_quests_completed"`
	LastQuestCompletedAt *int64   `json:"last_quest_completed_at,omitempty"`
	CreatedAt            int64    `json:"created_at"`
	UpdatedAt            int64    `json:"updated_at"`
}

func userResponseFrom(u *model.User) userResponse {
	pending := make([]string, len(u.Quests.Pending))
	for i, id := range u.Quests.Pending {
		pending[i] = id.String()
	}
	completed := make([]string, len(u.Quests.Completed))
	for i, id := range u.Quests.Completed {
		completed[i] = id.String()
	}

	resp := userResponse{
		ID:                   u.ID.String(),
		Address:              u.Address,
		PendingQuests:        pending,
		CompletedQuests:      completed,
		TotalQuestsCompleted: u.TotalQuestsCompleted,
		CreatedAt:            u.CreatedAt.Unix(),
		UpdatedAt:            u.UpdatedAt.Unix(),
	}
	if u.LastQuestCompletedAt != nil {
		unix := u.LastQuestCompletedAt.Unix()
		resp.LastQuestCompletedAt = &unix
	}
	return resp
}

func (r *userRoutes) GetOrCreateUser(c *gin.Context) {
	log := logger.Logger()

	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !common.IsHexAddress(req.Address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	user, err := r.us.GetOrCreateUser(c.Request.Context(), req.Address)
	if err != nil {
		log.Error("failed to get or create user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, userResponseFrom(user))
}

func (r *userRoutes) GetUserByAddress(c *gin.Context) {
	address := c.Param("address")
	if !common.IsHexAddress(address) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	user, err := r.us.GetUserByAddress(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no user associated with the provided address"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, userResponseFrom(user))
}
