// Пакет media строит встраиваемое представление медиа сущностей документа.
//
// Основные возможности:
//   - Resolve: тип сущности и ее data.src -> адрес фрейма или изображения.
//   - Detect: распознавание адреса страницы или плеера провайдера -> тип сущности и идентификатор.
package media

import (
	"fmt"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

type Kind int

const (
	// KindImage - изображение с известным адресом
	KindImage Kind = iota
	// KindPending - изображение, загрузка которого еще не завершена
	KindPending
	// KindFrame - плеер провайдера во фрейме
	KindFrame
)

type EmbedDescriptor struct {
	Kind   Kind
	Type   edtypes.EntityType
	URL    string
	Width  string
	Height string
	// Name - исходное имя файла изображения
	Name string
}

type frameTemplate struct {
	url    string
	width  string
	height string
}

var frames = map[edtypes.EntityType]frameTemplate{
	edtypes.YoutubeEntity:       {url: "https://www.youtube.com/embed/%s"},
	edtypes.YoukuEntity:         {url: "https://player.youku.com/embed/%s"},
	edtypes.QQEntity:            {url: "https://v.qq.com/iframe/player.html?vid=%s&tiny=0&auto=0", width: "auto", height: "auto"},
	edtypes.MusicSongEntity:     {url: "//music.163.com/outchain/player?type=2&id=%s&auto=1&height=66", width: "auto", height: "86"},
	edtypes.MusicPlaylistEntity: {url: "//music.163.com/outchain/player?type=0&id=%s&auto=1&height=430", width: "auto", height: "450"},
}

// Resolve строит EmbedDescriptor для медиа сущности. Функция чистая, сущность не изменяется.
// Для link, tudou и неизвестных типов возвращается apierrors.ErrUnknownMediaType.
func Resolve(e edtypes.Entity) (EmbedDescriptor, error) {
	src := e.Data.String("src")

	if e.Type == edtypes.ImageEntity {
		if src == "" {
			return EmbedDescriptor{Kind: KindPending, Type: e.Type, Name: e.Data.String("name")}, nil
		}
		return EmbedDescriptor{Kind: KindImage, Type: e.Type, URL: src, Name: e.Data.String("name")}, nil
	}

	tmpl, ok := frames[e.Type]
	if !ok {
		return EmbedDescriptor{}, fmt.Errorf("%w: %q", apierrors.ErrUnknownMediaType, e.Type)
	}
	return EmbedDescriptor{
		Kind:   KindFrame,
		Type:   e.Type,
		URL:    fmt.Sprintf(tmpl.url, src),
		Width:  tmpl.width,
		Height: tmpl.height,
	}, nil
}
