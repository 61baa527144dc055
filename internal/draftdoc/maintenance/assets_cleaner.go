// Фоновые задачи обслуживания хранилища.
//
// AssetsCleaner переносит в каталог "unknown/" объекты хранилища, на которые не ссылается ни одно вложение документа,
// например брошенные загрузки tus и файлы удаленных документов.
package maintenance

import (
	"log/slog"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	filestorage "github.com/aisa-it/draftdoc/internal/draftdoc/file-storage"
	"gorm.io/gorm"
)

const unknownPrefix = "unknown/"

type AssetsCleaner struct {
	db *gorm.DB
	si filestorage.FileStorage
}

func NewAssetCleaner(db *gorm.DB, si filestorage.FileStorage) *AssetsCleaner {
	return &AssetsCleaner{db, si}
}

// CleanAssets возвращает число перенесенных объектов.
func (ac *AssetsCleaner) CleanAssets() int {
	slog.Info("Start assets cleaning")

	refs, err := dao.ReferencedAttachmentIDs(ac.db)
	if err != nil {
		slog.Error("Get referenced attachments", "err", err)
		return 0
	}

	var moved int
	if err := ac.si.ListRoot(func(fi filestorage.FileInfo) error {
		if strings.HasPrefix(fi.Name, unknownPrefix) {
			return nil
		}
		if _, ok := refs[fi.Name]; ok {
			return nil
		}
		if err := ac.si.Move(fi.Name, unknownPrefix+fi.Name); err != nil {
			return err
		}
		moved++
		return nil
	}); err != nil {
		slog.Error("Clean assets fail", "err", err)
	}

	slog.Info("Finish assets cleaning", "moved", moved)
	return moved
}

// Job - обертка для реестра cronmanager.
func (ac *AssetsCleaner) Job() {
	ac.CleanAssets()
}
