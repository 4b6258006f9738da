package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/realtime"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/services"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/logger"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// SocketHandler upgrades authenticated clients and registers the connection
// under every identity the account holds, so a driver with a customer
// account receives events addressed to either role on one socket.
type SocketHandler struct {
	Registry *realtime.Registry
}

func NewSocketHandler(registry *realtime.Registry) *SocketHandler {
	return &SocketHandler{Registry: registry}
}

// ServeWS GET /ws?token=...
func (h *SocketHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = c.Query("auth_token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	claims, err := utils.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	acting := models.ParticipantRole(claims.UserType)
	if !acting.IsValid() {
		acting = models.RoleUser
	}
	keys := services.ResolveParticipantKeys(claims.UserID, acting)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := realtime.NewConnection(ws)
	for _, key := range keys {
		h.Registry.Register(key, conn)
	}

	connected, _ := json.Marshal(realtime.Event{
		Event: "connected",
		Data: map[string]interface{}{
			"userId":   claims.UserID,
			"userType": acting,
		},
	})
	_ = conn.Send(connected)

	logger.Info().
		Str("user", claims.UserID).
		Str("role", string(acting)).
		Int("keys", len(keys)).
		Msg("socket connected")

	// blocks until the socket dies, then the connection is dropped from
	// every key it was registered under
	conn.ReadLoop()
	conn.Close(websocket.CloseNormalClosure, "bye")
	for _, key := range keys {
		h.Registry.Unregister(key, conn)
	}

	logger.Info().Str("user", claims.UserID).Msg("socket disconnected")
}
