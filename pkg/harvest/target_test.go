package harvest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	assert.Equal(t, []Kind{PublicProfile, Hashtag, SinglePost}, Kinds(false))

	all := Kinds(true)
	assert.Len(t, all, 8)
	names := make([]string, 0, len(all))
	for _, k := range all {
		names = append(names, k.String())
	}
	assert.Equal(t, []string{
		"public profile", "hashtag", "single post",
		"private profile", "location id", "story", "feed", "saved",
	}, names)

	assert.False(t, Hashtag.NeedsLogin())
	assert.True(t, Saved.NeedsLogin())
	assert.False(t, Feed.NeedsQuery())
	assert.True(t, Story.NeedsQuery())
}

func TestTargetDir(t *testing.T) {
	tests := []struct {
		target Target
		want   string
	}{
		{Target{PublicProfile, "@alice "}, "alice"},
		{Target{PrivateProfile, "bob"}, "bob"},
		{Target{Hashtag, "#cats"}, "#cats"},
		{Target{Hashtag, "dogs"}, "#dogs"},
		{Target{LocationID, "213385402"}, "%213385402"},
		{Target{Story, "alice"}, ":stories"},
		{Target{Feed, ""}, ":feed"},
		{Target{Saved, ""}, ":saved"},
		{Target{SinglePost, "https://www.instagram.com/p/CxYz12/"}, "CxYz12"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.target.Dir(), tt.target.String())
	}
}

func TestTargetString(t *testing.T) {
	assert.Equal(t, "hashtag cats", Target{Hashtag, "cats"}.String())
	assert.Equal(t, "feed", Target{Kind: Feed}.String())
}
