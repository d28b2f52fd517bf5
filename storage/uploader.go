package storage

import (
	"context"
	"fmt"
	"io"
)

// У каждой сущности не больше одной картинки: ключ объекта детерминирован,
// повторная загрузка перезаписывает предыдущую версию. Раскладка бакета
// зафиксирована этими конструкторами, строить ключи вручную нельзя.

func TeamLogoKey(teamID int) string { return fmt.Sprintf("teams/%d/logo", teamID) }

func UserAvatarKey(userID int) string { return fmt.Sprintf("users/%d/avatar", userID) }

func ComplexPhotoKey(complexID int) string { return fmt.Sprintf("complexes/%d/photo", complexID) }

// UploadResult описывает сохранённый объект.
type UploadResult struct {
	Key      string
	Location string
	ETag     string
}

// FileUploader хранит картинки платформы: логотипы команд, аватары
// игроков, фотографии комплексов. Ключи берутся из конструкторов выше.
type FileUploader interface {
	Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetPublicURL(key string) string
}
