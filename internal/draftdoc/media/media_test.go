package media

import (
	"encoding/json"
	"testing"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		entity edtypes.Entity
		want   EmbedDescriptor
	}{
		{
			name:   "youtube",
			entity: edtypes.Entity{Type: edtypes.YoutubeEntity, Data: edtypes.EntityData{"src": "XYZ"}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.YoutubeEntity, URL: "https://www.youtube.com/embed/XYZ"},
		},
		{
			name:   "youku",
			entity: edtypes.Entity{Type: edtypes.YoukuEntity, Data: edtypes.EntityData{"src": "XNjA"}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.YoukuEntity, URL: "https://player.youku.com/embed/XNjA"},
		},
		{
			name:   "qq",
			entity: edtypes.Entity{Type: edtypes.QQEntity, Data: edtypes.EntityData{"src": "v1"}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.QQEntity, URL: "https://v.qq.com/iframe/player.html?vid=v1&tiny=0&auto=0", Width: "auto", Height: "auto"},
		},
		{
			name:   "163 song",
			entity: edtypes.Entity{Type: edtypes.MusicSongEntity, Data: edtypes.EntityData{"src": "123"}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.MusicSongEntity, URL: "//music.163.com/outchain/player?type=2&id=123&auto=1&height=66", Width: "auto", Height: "86"},
		},
		{
			name:   "163 playlist",
			entity: edtypes.Entity{Type: edtypes.MusicPlaylistEntity, Data: edtypes.EntityData{"src": "456"}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.MusicPlaylistEntity, URL: "//music.163.com/outchain/player?type=0&id=456&auto=1&height=430", Width: "auto", Height: "450"},
		},
		{
			name:   "163 song numeric id",
			entity: edtypes.Entity{Type: edtypes.MusicSongEntity, Data: edtypes.EntityData{"src": float64(186016)}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.MusicSongEntity, URL: "//music.163.com/outchain/player?type=2&id=186016&auto=1&height=66", Width: "auto", Height: "86"},
		},
		{
			name:   "163 playlist json number",
			entity: edtypes.Entity{Type: edtypes.MusicPlaylistEntity, Data: edtypes.EntityData{"src": json.Number("456")}},
			want:   EmbedDescriptor{Kind: KindFrame, Type: edtypes.MusicPlaylistEntity, URL: "//music.163.com/outchain/player?type=0&id=456&auto=1&height=430", Width: "auto", Height: "450"},
		},
		{
			name:   "image",
			entity: edtypes.Entity{Type: edtypes.ImageEntity, Data: edtypes.EntityData{"src": "https://cdn/a.png", "name": "a.png"}},
			want:   EmbedDescriptor{Kind: KindImage, Type: edtypes.ImageEntity, URL: "https://cdn/a.png", Name: "a.png"},
		},
		{
			name:   "pending image",
			entity: edtypes.Entity{Type: edtypes.ImageEntity, Data: edtypes.EntityData{"src": "", "name": "a.png"}},
			want:   EmbedDescriptor{Kind: KindPending, Type: edtypes.ImageEntity, Name: "a.png"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.entity)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUnknownMediaType(t *testing.T) {
	for _, et := range []edtypes.EntityType{edtypes.LinkEntity, edtypes.TudouEntity, "vimeo"} {
		_, err := Resolve(edtypes.Entity{Type: et, Data: edtypes.EntityData{"src": "1"}})
		assert.ErrorIs(t, err, apierrors.ErrUnknownMediaType, et)
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		url    string
		wantT  edtypes.EntityType
		wantID string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", edtypes.YoutubeEntity, "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/XYZ", edtypes.YoutubeEntity, "XYZ"},
		{"youtu.be/abc", edtypes.YoutubeEntity, "abc"},
		{"https://v.youku.com/v_show/id_XNDk2MzQ5.html", edtypes.YoukuEntity, "XNDk2MzQ5"},
		{"https://player.youku.com/embed/XNDk2MzQ5", edtypes.YoukuEntity, "XNDk2MzQ5"},
		{"https://v.qq.com/x/cover/mzc00200/u0033xyz.html", edtypes.QQEntity, "u0033xyz"},
		{"https://v.qq.com/iframe/player.html?vid=u0033xyz&tiny=0&auto=0", edtypes.QQEntity, "u0033xyz"},
		{"https://music.163.com/#/song?id=186016", edtypes.MusicSongEntity, "186016"},
		{"https://music.163.com/playlist?id=24381616", edtypes.MusicPlaylistEntity, "24381616"},
		{"//music.163.com/outchain/player?type=2&id=186016&auto=1&height=66", edtypes.MusicSongEntity, "186016"},
		{"//music.163.com/outchain/player?type=0&id=24381616&auto=1&height=430", edtypes.MusicPlaylistEntity, "24381616"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			et, id, err := Detect(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.wantT, et)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestDetectUnsupported(t *testing.T) {
	for _, u := range []string{
		"https://vimeo.com/123",
		"https://www.youtube.com/channel/abc",
		"https://music.163.com/#/song?id=abc",
		"::::",
	} {
		_, _, err := Detect(u)
		assert.ErrorIs(t, err, apierrors.ErrUnsupportedMediaURL, u)
	}
}
