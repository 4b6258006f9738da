package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/database"
	"github.com/NextLevelManagementAdvisors/Waste-Management-Portal-sub007/internal/models"
)

type templateRequest struct {
	Name      string         `json:"name" binding:"required"`
	Channel   string         `json:"channel" binding:"required"`
	Subject   string         `json:"subject"`
	Body      string         `json:"body" binding:"required"`
	Variables datatypes.JSON `json:"variables"`
}

// ListTemplates GET /admin/templates
func ListTemplates(c *gin.Context) {
	var templates []models.CommunicationTemplate
	if err := database.DB.Order("created_at desc").Find(&templates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// GetTemplate GET /admin/templates/:id
func GetTemplate(c *gin.Context) {
	var template models.CommunicationTemplate
	if err := database.DB.First(&template, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": template})
}

// CreateTemplate POST /admin/templates
func CreateTemplate(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, channel and body are required"})
		return
	}

	channel := models.CommChannel(req.Channel)
	if !channel.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel must be email or sms"})
		return
	}

	template := models.CommunicationTemplate{
		Name:        req.Name,
		Channel:     channel,
		Subject:     req.Subject,
		Body:        req.Body,
		Variables:   req.Variables,
		CreatedByID: c.GetString("userId"),
	}
	if err := database.DB.Create(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// UpdateTemplate PUT /admin/templates/:id: full replace, no versioning.
func UpdateTemplate(c *gin.Context) {
	var template models.CommunicationTemplate
	if err := database.DB.First(&template, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}

	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, channel and body are required"})
		return
	}

	channel := models.CommChannel(req.Channel)
	if !channel.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Channel must be email or sms"})
		return
	}

	template.Name = req.Name
	template.Channel = channel
	template.Subject = req.Subject
	template.Body = req.Body
	template.Variables = req.Variables
	if err := database.DB.Save(&template).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update template"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"template": template})
}

// DeleteTemplate DELETE /admin/templates/:id
func DeleteTemplate(c *gin.Context) {
	res := database.DB.Delete(&models.CommunicationTemplate{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete template"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
