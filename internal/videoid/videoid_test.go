package videoid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNamespaceUUIDForDomain_TikTok(t *testing.T) {
	require.Equal(t, uuid.MustParse("0a69b5d8-da54-55f8-8b2b-dfc6b2eb4b97"), NamespaceUUIDForDomain("TikTok.com."))
}

func TestVideoUUID_YouTubeExample(t *testing.T) {
	id := VideoUUID("youtube.com", "ggLajT7aMMk")
	require.Equal(t, uuid.MustParse("ac236969-fc24-5d7d-92b9-ef5e30e26a63"), id)
}

func TestTrackedVideoID(t *testing.T) {
	id := TrackedVideoID("https://www.tiktok.com/@shop/video/7234567890123456789", "tiktok.com")
	require.Equal(t, uuid.MustParse("9ba29b66-2e28-59b2-82bc-3e7b2a7ee57a"), id)

	// Same video, different handle form: same id.
	require.Equal(t, id, TrackedVideoID("https://www.tiktok.com/video/7234567890123456789", "tiktok.com"))

	other := TrackedVideoID("https://example.com/clip/1", "example.com")
	require.Equal(t, uuid.MustParse("be1f4dfe-843d-57ee-8eae-cb85051cf5a6"), other)
}

func TestResolveCanonicalDomain_Aliases(t *testing.T) {
	require.Equal(t, "tiktok.com", ResolveCanonicalDomain("www.tiktok.com"))
	require.Equal(t, "tiktok.com", ResolveCanonicalDomain("M.TikTok.com"))
	require.Equal(t, "tiktok.com", ResolveCanonicalDomain("vm.tiktok.com:443"))
	require.Equal(t, "youtube.com", ResolveCanonicalDomain("youtu.be"))
	require.Equal(t, "example.com", ResolveCanonicalDomain("example.com."))
}

func TestNormalizeSourceURL_TikTok(t *testing.T) {
	n, canon, err := NormalizeSourceURL("https://www.tiktok.com/@shop/video/7234567890123456789?is_from_webapp=1&sender_device=pc#top")
	require.NoError(t, err)
	require.Equal(t, "tiktok.com", canon)
	require.Equal(t, "https://www.tiktok.com/@shop/video/7234567890123456789", n)

	n, _, err = NormalizeSourceURL("http://m.tiktok.com/v/7234567890123456789.html")
	require.NoError(t, err)
	require.Equal(t, "https://www.tiktok.com/video/7234567890123456789", n)

	n, _, err = NormalizeSourceURL("tiktok.com/@shop/video/7234567890123456789/")
	require.NoError(t, err)
	require.Equal(t, "https://www.tiktok.com/@shop/video/7234567890123456789", n)
}

func TestNormalizeSourceURL_TikTokErrors(t *testing.T) {
	_, _, err := NormalizeSourceURL("https://www.tiktok.com/@shop")
	require.ErrorIs(t, err, ErrNoVideoID)

	_, _, err = NormalizeSourceURL("https://vm.tiktok.com/ZMabc123/")
	require.Error(t, err)

	_, _, err = NormalizeSourceURL("   ")
	require.Error(t, err)
}

func TestNormalizeSourceURL_YouTube_StripsQuery(t *testing.T) {
	n, canon, err := NormalizeSourceURL("https://www.youtube.com/watch?v=ggLajT7aMMk&t=123s&si=abc")
	require.NoError(t, err)
	require.Equal(t, "youtube.com", canon)
	require.Equal(t, "https://youtube.com/watch?v=ggLajT7aMMk", n)

	n, _, err = NormalizeSourceURL("youtu.be/ggLajT7aMMk?t=120")
	require.NoError(t, err)
	require.Equal(t, "https://youtube.com/watch?v=ggLajT7aMMk", n)
}

func TestNormalizeSourceURL_UnknownHostKeepsQuery(t *testing.T) {
	n, canon, err := NormalizeSourceURL("https://Example.com/clip/1/?a=b#frag")
	require.NoError(t, err)
	require.Equal(t, "example.com", canon)
	require.Equal(t, "https://example.com/clip/1?a=b", n)
}

func TestExtractTikTokVideoID(t *testing.T) {
	id, err := ExtractTikTokVideoID("https://www.tiktok.com/@a.b/photo/7300000000000000001")
	require.NoError(t, err)
	require.Equal(t, "7300000000000000001", id)

	_, err = ExtractTikTokVideoID("https://www.youtube.com/watch?v=abc")
	require.ErrorIs(t, err, ErrNoVideoID)

	_, err = ExtractTikTokVideoID("https://www.tiktok.com/@a/video/notanumber")
	require.ErrorIs(t, err, ErrNoVideoID)
}

func TestIsShortlinkAndExpandPassThrough(t *testing.T) {
	require.True(t, IsShortlink("https://vm.tiktok.com/ZMabc123/"))
	require.False(t, IsShortlink("https://www.tiktok.com/@a/video/1"))

	out, err := ExpandURL(context.Background(), "https://www.tiktok.com/@a/video/1")
	require.NoError(t, err)
	require.Equal(t, "https://www.tiktok.com/@a/video/1", out)
}
