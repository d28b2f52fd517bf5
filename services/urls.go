package services

import (
	"github.com/canchalibre/booking-system/models"
	"github.com/canchalibre/booking-system/storage"
)

// Ключи объектов в базе храним как key, наружу отдаём готовый публичный URL.

func populateTeamLogoURL(team *models.Team, uploader storage.FileUploader) {
	if team == nil || team.LogoKey == nil || uploader == nil {
		return
	}
	if u := uploader.GetPublicURL(*team.LogoKey); u != "" {
		team.LogoURL = &u
	}
}

func populateUserAvatarURL(user *models.User, uploader storage.FileUploader) {
	if user == nil || user.AvatarKey == nil || uploader == nil {
		return
	}
	if u := uploader.GetPublicURL(*user.AvatarKey); u != "" {
		user.AvatarURL = &u
	}
}

func populateComplexPhotoURL(cx *models.Complex, uploader storage.FileUploader) {
	if cx == nil || cx.PhotoKey == nil || uploader == nil {
		return
	}
	if u := uploader.GetPublicURL(*cx.PhotoKey); u != "" {
		cx.PhotoURL = &u
	}
}
