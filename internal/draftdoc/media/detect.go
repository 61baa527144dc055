package media

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/apierrors"
	"github.com/aisa-it/draftdoc/internal/draftdoc/editor/edtypes"
)

var (
	youkuIdReg = regexp.MustCompile(`id_([A-Za-z0-9=]+)\.html`)
	qqPageReg  = regexp.MustCompile(`/([A-Za-z0-9]+)\.html$`)
	digitsReg  = regexp.MustCompile(`^[0-9]+$`)
)

// Detect распознает адрес страницы или плеера провайдера и возвращает тип сущности и ее data.src.
func Detect(rawURL string) (edtypes.EntityType, string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if strings.HasPrefix(rawURL, "//") {
		rawURL = "https:" + rawURL
	} else if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "", "", fmt.Errorf("%w: %q", apierrors.ErrUnsupportedMediaURL, rawURL)
	}
	host := strings.ToLower(u.Hostname())

	var (
		t  edtypes.EntityType
		id string
	)
	switch {
	case hostIs(host, "youtube.com"):
		t = edtypes.YoutubeEntity
		if strings.HasPrefix(u.Path, "/embed/") {
			id = path.Base(u.Path)
		} else {
			id = u.Query().Get("v")
		}
	case host == "youtu.be":
		t, id = edtypes.YoutubeEntity, strings.Trim(u.Path, "/")
	case hostIs(host, "youku.com"):
		t = edtypes.YoukuEntity
		if strings.HasPrefix(u.Path, "/embed/") {
			id = path.Base(u.Path)
		} else if m := youkuIdReg.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		}
	case hostIs(host, "qq.com"):
		t = edtypes.QQEntity
		if vid := u.Query().Get("vid"); vid != "" {
			id = vid
		} else if m := qqPageReg.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		}
	case hostIs(host, "music.163.com"):
		t, id = detectMusic(u)
	}

	if t == "" || id == "" {
		return "", "", fmt.Errorf("%w: %q", apierrors.ErrUnsupportedMediaURL, rawURL)
	}
	return t, id, nil
}

// detectMusic разбирает адреса вида /song?id=, /#/playlist?id= и адреса плеера outchain/player?type=&id=.
func detectMusic(u *url.URL) (edtypes.EntityType, string) {
	query := u.Query()
	route := u.Path
	if before, after, ok := strings.Cut(u.Fragment, "?"); ok {
		route = before
		if q, err := url.ParseQuery(after); err == nil {
			query = q
		}
	}

	id := query.Get("id")
	if !digitsReg.MatchString(id) {
		return "", ""
	}

	switch {
	case strings.Contains(route, "outchain") && query.Get("type") == "2":
		return edtypes.MusicSongEntity, id
	case strings.Contains(route, "outchain") && query.Get("type") == "0":
		return edtypes.MusicPlaylistEntity, id
	case strings.Contains(route, "song"):
		return edtypes.MusicSongEntity, id
	case strings.Contains(route, "playlist"):
		return edtypes.MusicPlaylistEntity, id
	}
	return "", ""
}

func hostIs(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}
