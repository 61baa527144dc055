package maintenance

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/aisa-it/draftdoc/internal/draftdoc/dao"
	filestorage "github.com/aisa-it/draftdoc/internal/draftdoc/file-storage"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestCleanAssets(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "docs.db")), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, dao.Migrate(db))

	storage, err := filestorage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	doc := dao.Doc{Title: "doc"}
	require.NoError(t, db.Create(&doc).Error)
	kept := dao.DocAttachment{DocId: doc.ID, Name: "a.png"}
	require.NoError(t, db.Create(&kept).Error)

	orphan := uuid.Must(uuid.NewV4())
	for _, name := range []uuid.UUID{kept.Id, orphan} {
		require.NoError(t, storage.SaveReader(strings.NewReader("x"), 1, name, "image/png", nil))
	}

	cleaner := NewAssetCleaner(db, storage)
	assert.Equal(t, 1, cleaner.CleanAssets())
	assert.Equal(t, 0, cleaner.CleanAssets())

	exist, err := storage.Exist(kept.Id)
	require.NoError(t, err)
	assert.True(t, exist)

	exist, err = storage.Exist(orphan)
	require.NoError(t, err)
	assert.False(t, exist)
}
