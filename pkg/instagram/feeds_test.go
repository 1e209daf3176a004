package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "igharvest/pkg/errors"
)

func mediaNode(shortcode string, ts int64) map[string]interface{} {
	return map[string]interface{}{
		"__typename":         "GraphImage",
		"id":                 ShortcodeToMediaID(shortcode),
		"shortcode":          shortcode,
		"display_url":        "https://cdn.example.com/" + shortcode + ".jpg",
		"taken_at_timestamp": ts,
		"owner":              map[string]interface{}{"id": "42"},
	}
}

func connection(cursor string, hasNext bool, nodes ...map[string]interface{}) map[string]interface{} {
	edges := make([]map[string]interface{}, 0, len(nodes))
	for _, n := range nodes {
		edges = append(edges, map[string]interface{}{"node": n})
	}
	return map[string]interface{}{
		"count":     len(nodes),
		"page_info": map[string]interface{}{"has_next_page": hasNext, "end_cursor": cursor},
		"edges":     edges,
	}
}

func collect(t *testing.T, it *PostIterator) ([]string, error) {
	t.Helper()
	var shortcodes []string
	for post, err := range it.All(context.Background()) {
		if err != nil {
			return shortcodes, err
		}
		shortcodes = append(shortcodes, post.Shortcode)
	}
	return shortcodes, nil
}

func profileHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(ProfileEndpoint, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != "alice" {
			json.NewEncoder(w).Encode(map[string]interface{}{"data": map[string]interface{}{"user": nil}, "status": "ok"})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]interface{}{"user": map[string]interface{}{
				"id":                           "42",
				"username":                     "alice",
				"edge_owner_to_timeline_media": connection("page2", true, mediaNode("AAA", 300), mediaNode("AAB", 200)),
			}},
			"status": "ok",
		})
	})
	mux.Handle(GraphQLEndpoint, graphQLMux{
		ProfileMediaQueryHash: func(vars map[string]interface{}) interface{} {
			assert.Equal(t, "42", vars["id"])
			var conn map[string]interface{}
			switch vars["after"] {
			case "page2":
				conn = connection("page3", true, mediaNode("AAC", 100))
			case "page3":
				conn = connection("", false, mediaNode("AAD", 50))
			default:
				t.Errorf("unexpected cursor %v", vars["after"])
			}
			return map[string]interface{}{"user": map[string]interface{}{"edge_owner_to_timeline_media": conn}}
		},
	})
	return mux
}

func TestProfilePostsPaginates(t *testing.T) {
	client, _ := newTestClient(t, profileHandler(t))

	it, err := client.ProfilePosts(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, it.Total())

	var cursors []string
	var owners []string
	for post, err := range it.All(context.Background()) {
		require.NoError(t, err)
		cursors = append(cursors, it.Cursor())
		owners = append(owners, post.OwnerUsername)
	}

	assert.Equal(t, []string{"", "", "page2", "page3"}, cursors)
	assert.Equal(t, []string{"alice", "alice", "alice", "alice"}, owners)
}

func TestProfilePostsResume(t *testing.T) {
	client, _ := newTestClient(t, profileHandler(t))

	it, err := client.ProfilePosts(context.Background(), "alice")
	require.NoError(t, err)
	it.Resume("page3")

	shortcodes, err := collect(t, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAD"}, shortcodes)
}

func TestProfilePostsEarlyBreakStopsFetching(t *testing.T) {
	client, _ := newTestClient(t, profileHandler(t))

	it, err := client.ProfilePosts(context.Background(), "alice")
	require.NoError(t, err)

	for post, err := range it.All(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, "AAA", post.Shortcode)
		break
	}
	assert.Equal(t, "", it.Cursor())
}

func TestProfileNotFound(t *testing.T) {
	client, _ := newTestClient(t, profileHandler(t))

	_, err := client.ProfilePosts(context.Background(), "nobody")
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))

	_, err = client.ProfilePosts(context.Background(), "bad name!")
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
}

func TestPrivateProfileRequiresFollow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(ProfileEndpoint, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"user":{"id":"7","username":"locked","is_private":true}},"status":"ok"}`)
	})
	client, _ := newTestClient(t, mux)

	_, err := client.ProfilePosts(context.Background(), "locked")
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}

func TestHashtagPosts(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		HashtagMediaQueryHash: func(vars map[string]interface{}) interface{} {
			if vars["tag_name"] != "cats" {
				return map[string]interface{}{"hashtag": nil}
			}
			if vars["after"] == nil {
				return map[string]interface{}{"hashtag": map[string]interface{}{
					"edge_hashtag_to_media": connection("c1", true, mediaNode("H1", 20)),
				}}
			}
			return map[string]interface{}{"hashtag": map[string]interface{}{
				"edge_hashtag_to_media": connection("", false, mediaNode("H2", 10)),
			}}
		},
	})

	it, err := client.HashtagPosts(context.Background(), "#cats")
	require.NoError(t, err)
	shortcodes, err := collect(t, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"H1", "H2"}, shortcodes)

	_, err = client.HashtagPosts(context.Background(), "dogs")
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
}

func TestLocationPostsFillsCoordinates(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		LocationMediaQueryHash: func(vars map[string]interface{}) interface{} {
			return map[string]interface{}{"location": map[string]interface{}{
				"id": "99", "name": "Harbour", "lat": 1.5, "lng": -2.25,
				"edge_location_to_media": connection("", false, mediaNode("L1", 10)),
			}}
		},
	})

	_, err := client.LocationPosts(context.Background(), "99")
	require.True(t, errs.IsType(err, errs.ErrorTypeAuth), "location feeds need a session")

	require.NoError(t, client.LoadSession(&Session{Username: "me", SessionID: "1%3Ax", UserID: "1"}))
	it, err := client.LocationPosts(context.Background(), "99")
	require.NoError(t, err)

	for post, err := range it.All(context.Background()) {
		require.NoError(t, err)
		require.NotNil(t, post.Location)
		assert.Equal(t, "Harbour", post.Location.Name)
		assert.InDelta(t, -2.25, *post.Location.Lng, 1e-9)
	}
}

func TestFeedSkipsForeignNodes(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		FeedQueryHash: func(vars map[string]interface{}) interface{} {
			assert.Nil(t, vars["fetch_media_item_cursor"])
			conn := connection("", false, mediaNode("F1", 10), map[string]interface{}{"__typename": "GraphSuggestedUserFeedUnit"})
			return map[string]interface{}{"user": map[string]interface{}{"edge_web_feed_timeline": conn}}
		},
	})
	require.NoError(t, client.LoadSession(&Session{SessionID: "1%3Ax", UserID: "1"}))

	it, err := client.FeedPosts(context.Background())
	require.NoError(t, err)
	shortcodes, err := collect(t, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"F1"}, shortcodes)
}

func TestSavedPosts(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		SavedMediaQueryHash: func(vars map[string]interface{}) interface{} {
			assert.Equal(t, "1", vars["id"])
			return map[string]interface{}{"user": map[string]interface{}{
				"edge_saved_media": connection("", false, mediaNode("S1", 10)),
			}}
		},
	})

	_, err := client.SavedPosts(context.Background())
	require.Error(t, err)

	require.NoError(t, client.LoadSession(&Session{SessionID: "1%3Ax", UserID: "1"}))
	it, err := client.SavedPosts(context.Background())
	require.NoError(t, err)
	shortcodes, err := collect(t, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"S1"}, shortcodes)
}

func TestSinglePost(t *testing.T) {
	client, _ := newTestClient(t, graphQLMux{
		SinglePostQueryHash: func(vars map[string]interface{}) interface{} {
			if vars["shortcode"] != "P1" {
				return map[string]interface{}{"shortcode_media": nil}
			}
			return map[string]interface{}{"shortcode_media": mediaNode("P1", 10)}
		},
	})

	it, err := client.SinglePost(context.Background(), "https://www.instagram.com/p/P1/")
	require.NoError(t, err)
	shortcodes, err := collect(t, it)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1"}, shortcodes)

	_, err = client.SinglePost(context.Background(), "P2")
	assert.True(t, errs.IsType(err, errs.ErrorTypeNotFound))
}

func TestStoryPosts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(ProfileEndpoint, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"user":{"id":"42","username":"alice"}},"status":"ok"}`)
	})
	mux.Handle(GraphQLEndpoint, graphQLMux{
		StoriesQueryHash: func(vars map[string]interface{}) interface{} {
			assert.Equal(t, []interface{}{"42"}, vars["reel_ids"])
			return map[string]interface{}{"reels_media": []interface{}{
				map[string]interface{}{
					"id": "42",
					"items": []interface{}{
						map[string]interface{}{"__typename": "GraphStoryImage", "id": "100", "taken_at_timestamp": 1},
						map[string]interface{}{"__typename": "GraphStoryImage", "id": "200", "taken_at_timestamp": 2},
					},
				},
			}}
		},
	})
	client, _ := newTestClient(t, mux)
	require.NoError(t, client.LoadSession(&Session{SessionID: "1%3Ax", UserID: "1"}))

	it, err := client.StoryPosts(context.Background(), "alice")
	require.NoError(t, err)

	var ids []string
	for post, err := range it.All(context.Background()) {
		require.NoError(t, err)
		assert.Equal(t, "alice", post.OwnerUsername)
		ids = append(ids, post.MediaID)
	}
	assert.Equal(t, []string{"200", "100"}, ids)
}
