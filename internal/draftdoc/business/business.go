// Бизнес-логика документов: каждое изменение выполняется под блокировкой документа по схеме
// загрузка -> Editor -> рендер -> очистка и минификация превью -> сохранение -> рассылка превью.
package business

import (
	"sync"

	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	filestorage "github.com/aisa-it/draftdoc/internal/draftdoc/file-storage"
	"github.com/aisa-it/draftdoc/internal/draftdoc/notifications"
	"github.com/gofrs/uuid"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"
	"gorm.io/gorm"
)

// PreviewSender рассылает превью открытым сессиям документа.
type PreviewSender interface {
	Send(msg notifications.PreviewMsg)
	CloseDocSessions(docId string)
}

type Business struct {
	db      *gorm.DB
	storage filestorage.FileStorage
	hub     PreviewSender
	cfg     *config.Config

	minifier *minify.M

	locksMu sync.Mutex
	locks   map[uuid.UUID]*sync.Mutex
}

func NewBL(db *gorm.DB, storage filestorage.FileStorage, hub PreviewSender, cfg *config.Config) *Business {
	m := minify.New()
	m.Add("text/html", &html.Minifier{
		KeepEndTags:         true,
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
	})

	return &Business{
		db:       db,
		storage:  storage,
		hub:      hub,
		cfg:      cfg,
		minifier: m,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// lockDoc захватывает блокировку документа и возвращает функцию ее освобождения.
func (b *Business) lockDoc(id uuid.UUID) func() {
	b.locksMu.Lock()
	l, ok := b.locks[id]
	if !ok {
		l = &sync.Mutex{}
		b.locks[id] = l
	}
	b.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

func (b *Business) forgetLock(id uuid.UUID) {
	b.locksMu.Lock()
	delete(b.locks, id)
	b.locksMu.Unlock()
}

func (b *Business) maxDepth() int {
	if b.cfg == nil || b.cfg.MaxListDepth <= 0 {
		return config.DefaultMaxListDepth
	}
	return b.cfg.MaxListDepth
}
