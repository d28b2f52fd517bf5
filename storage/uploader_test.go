package storage

import "testing"

// Раскладка бакета это контракт с уже загруженными объектами:
// смена ключа осиротит прежние файлы.
func TestImageKeyLayout(t *testing.T) {
	t.Parallel()

	if got := TeamLogoKey(7); got != "teams/7/logo" {
		t.Fatalf("TeamLogoKey = %q", got)
	}
	if got := UserAvatarKey(12); got != "users/12/avatar" {
		t.Fatalf("UserAvatarKey = %q", got)
	}
	if got := ComplexPhotoKey(3); got != "complexes/3/photo" {
		t.Fatalf("ComplexPhotoKey = %q", got)
	}
}
