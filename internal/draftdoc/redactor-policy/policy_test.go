package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUgcPolicyFrames(t *testing.T) {
	in := `<iframe src="https://www.youtube.com/embed/XYZ" frameborder="0" allowfullscreen=""></iframe>` +
		`<iframe src="https://evil.com/embed/XYZ"></iframe>` +
		`<iframe src="//music.163.com/outchain/player?type=2&amp;id=1&amp;auto=1&amp;height=66" width="auto" height="86"></iframe>`

	out := UgcPolicy.Sanitize(in)
	assert.Contains(t, out, `src="https://www.youtube.com/embed/XYZ"`)
	assert.Contains(t, out, `src="//music.163.com/outchain/player?type=2&amp;id=1&amp;auto=1&amp;height=66"`)
	assert.Contains(t, out, `height="86"`)
	assert.NotContains(t, out, "evil.com")
}

func TestUgcPolicyLinksAndPlaceholders(t *testing.T) {
	out := UgcPolicy.Sanitize(`<p><a href="https://example.com" target="_blank" rel="nofollow">x</a><script>alert(1)</script></p>` +
		`<img alt="a.png" data-pending="true"/><div data-tudou="abc"></div>`)

	assert.Contains(t, out, `target="_blank"`)
	assert.Contains(t, out, `nofollow`)
	assert.Contains(t, out, `data-pending="true"`)
	assert.Contains(t, out, `data-tudou="abc"`)
	assert.NotContains(t, out, "script")
}

func TestMarkPendingImages(t *testing.T) {
	out := MarkPendingImages(`<p>x</p><img alt="a.png" data-pending="true"/><img src="https://cdn/b.png"/>`)
	assert.Equal(t, `<p>x</p>&lt;загрузка a.png&gt;<img src="https://cdn/b.png"/>`, out)
	assert.Equal(t, "", MarkPendingImages(""))
}
