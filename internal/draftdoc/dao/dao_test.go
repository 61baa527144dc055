package dao

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/aisa-it/draftdoc/internal/draftdoc/types"
	"github.com/glebarez/sqlite"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func TestMain(m *testing.M) {
	var err error
	db, err = gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}
	if err := Migrate(db); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

func TestDocLifecycle(t *testing.T) {
	doc := Doc{Title: "Заметки"}
	require.NoError(t, db.Create(&doc).Error)
	assert.False(t, doc.ID.IsNil())
	require.Len(t, doc.Content.Blocks, 1)

	doc.Content.Blocks[0].Text = "привет"
	doc.ContentHTML = types.NewRedactorHTML("<p>привет</p>")
	require.NoError(t, SaveDocContent(db, &doc))

	loaded, err := GetDoc(db, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Заметки", loaded.Title)
	assert.Equal(t, "привет", loaded.Content.PlainText())
	assert.Equal(t, "<p>привет</p>", loaded.ContentHTML.String())

	att := DocAttachment{DocId: doc.ID, Name: "a.png", ContentType: "image/png"}
	require.NoError(t, db.Create(&att).Error)

	refs, err := ReferencedAttachmentIDs(db)
	require.NoError(t, err)
	assert.Contains(t, refs, att.Id.String())

	deleted, err := DeleteDoc(db, doc.ID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, att.Id, deleted[0].Id)

	_, err = GetDoc(db, doc.ID)
	assert.ErrorIs(t, err, apierrors.ErrDocNotFound)

	_, err = DeleteDoc(db, doc.ID)
	assert.ErrorIs(t, err, apierrors.ErrDocNotFound)
}

func TestDocContentKeepsEntities(t *testing.T) {
	content := edtypes.NewDocument()
	key, err := content.Entities.Create(edtypes.YoutubeEntity, edtypes.Immutable, edtypes.EntityData{"src": "XYZ"})
	require.NoError(t, err)
	content.Blocks = append(content.Blocks, edtypes.Block{
		Key: "media", Type: edtypes.Atomic, Text: " ",
		EntityRanges: []edtypes.EntityRange{{Key: key, Length: 1}},
	})

	doc := Doc{Title: "Видео", Content: *content}
	require.NoError(t, db.Create(&doc).Error)

	loaded, err := GetDoc(db, doc.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Content.Blocks, 2)
	ek, ok := loaded.Content.Blocks[1].EntityAt(0)
	require.True(t, ok)
	e, err := loaded.Content.Entities.Get(ek)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", e.Data.String("src"))
}

func TestOpenDB(t *testing.T) {
	_, err := OpenDB(&config.Config{})
	assert.ErrorIs(t, err, ErrNoDatabase)

	fileDB, err := OpenDB(&config.Config{SQLitePath: filepath.Join(t.TempDir(), "docs.db")})
	require.NoError(t, err)
	require.NoError(t, Migrate(fileDB))

	_, err = GetDoc(fileDB, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, apierrors.ErrDocNotFound)
	assert.Len(t, GenID(), 36)
}
