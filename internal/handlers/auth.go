package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/services"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/pkg/utils"
)

// Login authenticates by email and password and issues a JWT for the acting
// role. The requested role must be one the account actually holds; otherwise
// the primary role (admin > driver > user) is used.
func Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Role     string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	var user models.User
	if err := database.DB.First(&user, "email = ?", req.Email).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	roles := services.ResolveRoles(user.ID)
	acting := roles[0]
	for _, r := range roles {
		if string(r) == req.Role {
			acting = r
			break
		}
	}

	// driver tokens carry the driver profile ID, which is the identity that
	// appears in participant rows and routing keys
	subjectID := user.ID
	if acting == models.RoleDriver {
		driver, err := services.ResolveDriverProfile(user.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Driver profile not found"})
			return
		}
		subjectID = driver.ID
	}

	token, err := utils.GenerateToken(subjectID, string(acting))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       user.ID,
			"name":     user.Name,
			"email":    user.Email,
			"userType": acting,
			"roles":    roles,
		},
	})
}
