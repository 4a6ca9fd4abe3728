package controllers

import (
	"errors"
	"net/http"

	"agency-backend/config"
	"agency-backend/models"
	"agency-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// websiteSettingsPayload is the full allow-listed field set. Updates only
// ever touch these columns; nothing is built from caller-supplied keys.
type websiteSettingsPayload struct {
	SiteName     string `json:"site_name"`
	SiteURL      string `json:"site_url"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
	Address      string `json:"address"`
	Avatar       string `json:"avatar"`
	Facebook     string `json:"facebook"`
	Instagram    string `json:"instagram"`
	Twitter      string `json:"twitter"`
	Linkedin     string `json:"linkedin"`
}

func GetWebsiteSettings(c *gin.Context) {
	var settings models.WebsiteSetting
	if err := config.DB.First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.JSONSuccess(c, http.StatusOK, "Website settings retrieved successfully.", models.WebsiteSetting{})
			return
		}
		utils.JSONError(c, http.StatusInternalServerError, "Failed to retrieve website settings.")
		return
	}

	utils.JSONSuccess(c, http.StatusOK, "Website settings retrieved successfully.", settings)
}

func UpdateWebsiteSettings(c *gin.Context) {
	var payload websiteSettingsPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	var settings models.WebsiteSetting
	err := config.DB.First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to load website settings.")
		return
	}

	settings.SiteName = payload.SiteName
	settings.SiteURL = payload.SiteURL
	settings.ContactEmail = payload.ContactEmail
	settings.ContactPhone = payload.ContactPhone
	settings.Address = payload.Address
	settings.Avatar = payload.Avatar
	settings.Facebook = payload.Facebook
	settings.Instagram = payload.Instagram
	settings.Twitter = payload.Twitter
	settings.Linkedin = payload.Linkedin

	if err := config.DB.Save(&settings).Error; err != nil {
		utils.JSONError(c, http.StatusInternalServerError, "Failed to update website settings.")
		return
	}

	utils.JSONSuccess(c, http.StatusOK, "Website settings updated successfully.", settings)
}
