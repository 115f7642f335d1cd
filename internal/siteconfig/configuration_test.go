package siteconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigurationIsACopy(t *testing.T) {
	first := DefaultConfiguration()
	first["about_title"] = "changed"
	delete(first, "site_title")

	second := DefaultConfiguration()
	require.NotEqual(t, "changed", second["about_title"])
	require.Contains(t, second, "site_title")
	require.True(t, second.Complete())
}

func TestDefaultKeysSorted(t *testing.T) {
	keys := DefaultKeys()
	require.Len(t, keys, len(DefaultConfiguration()))
	require.IsIncreasing(t, keys)
	require.Contains(t, keys, "image_banner_url")
	require.Contains(t, keys, "about_photo1_alt")
}

func TestMergePrecedence(t *testing.T) {
	merged := Merge(map[string]string{"about_title": "1", "about_subtitle": "2"})

	require.Equal(t, "1", merged["about_title"])
	require.Equal(t, "2", merged["about_subtitle"])
	require.Equal(t, DefaultConfiguration()["site_title"], merged["site_title"])
	require.True(t, merged.Complete())
}

func TestMergeNil(t *testing.T) {
	require.Equal(t, DefaultConfiguration(), Merge(nil))
}

func TestCompleteDetectsMissingKey(t *testing.T) {
	cfg := DefaultConfiguration()
	delete(cfg, "footer_text")
	require.False(t, cfg.Complete())
}
