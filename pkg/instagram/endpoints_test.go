package instagram

import (
	"encoding/json"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileURL(t *testing.T) {
	tests := []struct {
		name     string
		username string
		expected string
	}{
		{"simple username", "testuser", fmt.Sprintf("%s%s?username=testuser", BaseURL, ProfileEndpoint)},
		{"username with underscore", "test_user", fmt.Sprintf("%s%s?username=test_user", BaseURL, ProfileEndpoint)},
		{"username with dots", "test.user", fmt.Sprintf("%s%s?username=test.user", BaseURL, ProfileEndpoint)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ProfileURL(BaseURL, tt.username)
			assert.Equal(t, tt.expected, result)

			_, err := url.Parse(result)
			assert.NoError(t, err)
		})
	}
}

func TestGraphQLURL(t *testing.T) {
	raw, err := GraphQLURL(BaseURL, HashtagMediaQueryHash, map[string]interface{}{
		"tag_name": "cats",
		"first":    12,
		"after":    "QVFD==",
	})
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, GraphQLEndpoint, u.Path)
	assert.Equal(t, HashtagMediaQueryHash, u.Query().Get("query_hash"))

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(u.Query().Get("variables")), &vars))
	assert.Equal(t, "cats", vars["tag_name"])
	assert.Equal(t, "QVFD==", vars["after"])
	assert.Equal(t, float64(12), vars["first"])
}

func TestPageVariables(t *testing.T) {
	assert.Equal(t, map[string]interface{}{"first": DefaultPageSize}, pageVariables(0, ""))
	assert.Equal(t, map[string]interface{}{"first": MaxPageSize, "after": "c"}, pageVariables(500, "c"))
	assert.Equal(t, map[string]interface{}{"first": 20}, pageVariables(20, ""))
}

func TestIsValidUsername(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"testuser", true},
		{"test_user.01", true},
		{"", false},
		{"this_username_is_way_too_long_for_ig", false},
		{"bad-dash", false},
		{"space user", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidUsername(tt.username))
		})
	}
}

func TestSanitizers(t *testing.T) {
	assert.Equal(t, "alice", SanitizeUsername(" @alice/ "))
	assert.Equal(t, "", SanitizeUsername(""))
	assert.Equal(t, "sunset", SanitizeHashtag(" #sunset "))
}

func TestParseShortcode(t *testing.T) {
	tests := map[string]string{
		"CjX1aBcDeFg":                                      "CjX1aBcDeFg",
		"https://www.instagram.com/p/CjX1aBcDeFg/":         "CjX1aBcDeFg",
		"https://www.instagram.com/reel/CjX1aBcDeFg/?hl=en": "CjX1aBcDeFg",
		"/tv/CjX1aBcDeFg":                                  "CjX1aBcDeFg",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, ParseShortcode(input), input)
	}
}

func TestShortcodeMediaIDRoundTrip(t *testing.T) {
	assert.Equal(t, "0", ShortcodeToMediaID("A"))
	assert.Equal(t, "63", ShortcodeToMediaID("_"))
	assert.Equal(t, "64", ShortcodeToMediaID("BA"))
	assert.Equal(t, "", ShortcodeToMediaID("bad!"))

	assert.Equal(t, "BA", MediaIDToShortcode("64"))
	assert.Equal(t, "", MediaIDToShortcode("0"))
	assert.Equal(t, "", MediaIDToShortcode("abc"))

	id := "2934567890123456789"
	assert.Equal(t, id, ShortcodeToMediaID(MediaIDToShortcode(id)))
}

func TestPostURLs(t *testing.T) {
	assert.Equal(t, "https://www.instagram.com/p/abc/", GetPostURL("abc"))
	assert.Equal(t, "", GetPostURL(""))
	assert.Equal(t, "https://www.instagram.com/alice/", GetUserProfileURL("alice"))
	assert.Equal(t, "", GetUserProfileURL(""))
}
