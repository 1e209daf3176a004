package instagram

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/url"
	"strings"
)

const (
	// BaseURL is the base URL for Instagram
	BaseURL = "https://www.instagram.com"

	// ProfileEndpoint is the endpoint pattern for user profiles
	ProfileEndpoint = "/api/v1/users/web_profile_info/"

	// GraphQLEndpoint serves every paginated query
	GraphQLEndpoint = "/graphql/query/"

	LoginPageEndpoint = "/accounts/login/"
	LoginEndpoint     = "/accounts/login/ajax/"
	TwoFactorEndpoint = "/accounts/login/ajax/two_factor/"
	LogoutEndpoint    = "/accounts/logout/ajax/"

	// WebAppID identifies the browser client to the API
	WebAppID = "936619743392459"

	// DefaultPageSize is the default number of items requested per page
	DefaultPageSize = 12

	// MaxPageSize is the largest page Instagram answers
	MaxPageSize = 50
)

// Query hashes of the persisted GraphQL queries used by the web client
const (
	ProfileMediaQueryHash    = "e769aa130647d2354c40ea6a439bfc08"
	HashtagMediaQueryHash    = "9b498c08113f1e09617a1703c22b2f32"
	LocationMediaQueryHash   = "1b84447a4d8b6d6d0426fefb34514485"
	FeedQueryHash            = "d6f4427fbe92d846298cf93df0b937d3"
	SavedMediaQueryHash      = "f883d95537fbcd400f466f63d42bd8a1"
	SinglePostQueryHash      = "2b0673e0dc4580674a88d426fe00ea90"
	CommentsQueryHash        = "97b41c52301f77ce508f55e66d17620e"
	ThreadedCommentQueryHash = "51fdd02b67508306ad4484ff574a0b62"
	StoriesQueryHash         = "303a4ae99711322310f25250d988f3b7"
)

const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// ProfileURL constructs the URL for fetching a user's profile
func ProfileURL(base, username string) string {
	params := url.Values{}
	params.Set("username", username)

	return fmt.Sprintf("%s%s?%s", base, ProfileEndpoint, params.Encode())
}

// GraphQLURL constructs a persisted query URL with JSON encoded variables
func GraphQLURL(base, queryHash string, variables map[string]interface{}) (string, error) {
	vars, err := json.Marshal(variables)
	if err != nil {
		return "", fmt.Errorf("failed to encode query variables: %w", err)
	}

	params := url.Values{}
	params.Set("query_hash", queryHash)
	params.Set("variables", string(vars))

	return fmt.Sprintf("%s%s?%s", base, GraphQLEndpoint, params.Encode()), nil
}

// pageVariables builds the common first/after pair, clamping the page size
func pageVariables(first int, after string) map[string]interface{} {
	if first <= 0 {
		first = DefaultPageSize
	} else if first > MaxPageSize {
		first = MaxPageSize
	}

	vars := map[string]interface{}{"first": first}
	if after != "" {
		vars["after"] = after
	}
	return vars
}

// GetPostURL constructs the URL for a specific post
func GetPostURL(shortcode string) string {
	if shortcode == "" {
		return ""
	}
	return fmt.Sprintf("%s/p/%s/", BaseURL, shortcode)
}

// GetUserProfileURL constructs the public profile URL for a user
func GetUserProfileURL(username string) string {
	if username == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s/", BaseURL, username)
}

// IsValidUsername checks if a username is valid according to Instagram rules
func IsValidUsername(username string) bool {
	if username == "" || len(username) > 30 {
		return false
	}

	// Instagram usernames can only contain letters, numbers, periods, and underscores
	for _, char := range username {
		if !((char >= 'a' && char <= 'z') ||
			(char >= 'A' && char <= 'Z') ||
			(char >= '0' && char <= '9') ||
			char == '.' || char == '_') {
			return false
		}
	}

	return true
}

// SanitizeUsername strips a leading @ and trailing slashes or spaces
func SanitizeUsername(username string) string {
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	return strings.TrimRight(username, "/ ")
}

// SanitizeHashtag strips a leading # and surrounding space
func SanitizeHashtag(tag string) string {
	return strings.TrimPrefix(strings.TrimSpace(tag), "#")
}

// ParseShortcode accepts a bare shortcode or a post URL
func ParseShortcode(input string) string {
	input = strings.TrimSpace(input)
	for _, marker := range []string{"/p/", "/reel/", "/tv/"} {
		if i := strings.Index(input, marker); i >= 0 {
			rest := input[i+len(marker):]
			if j := strings.IndexAny(rest, "/?#"); j >= 0 {
				rest = rest[:j]
			}
			return rest
		}
	}
	return strings.Trim(input, "/")
}

// ShortcodeToMediaID decodes a shortcode into the numeric media id
func ShortcodeToMediaID(shortcode string) string {
	id := new(big.Int)
	base := big.NewInt(64)
	for _, c := range shortcode {
		idx := strings.IndexRune(shortcodeAlphabet, c)
		if idx < 0 {
			return ""
		}
		id.Mul(id, base)
		id.Add(id, big.NewInt(int64(idx)))
	}
	return id.String()
}

// MediaIDToShortcode encodes a numeric media id as a shortcode
func MediaIDToShortcode(mediaID string) string {
	id, ok := new(big.Int).SetString(mediaID, 10)
	if !ok || id.Sign() <= 0 {
		return ""
	}

	base := big.NewInt(64)
	mod := new(big.Int)
	var out []byte
	for id.Sign() > 0 {
		id.DivMod(id, base, mod)
		out = append(out, shortcodeAlphabet[mod.Int64()])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}
