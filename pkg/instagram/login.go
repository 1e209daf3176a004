package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	errs "igharvest/pkg/errors"
	"igharvest/pkg/ratelimit"
)

var sessionUserIDRegex = regexp.MustCompile(`^\d+`)

// Session holds the cookies that authenticate the web client
type Session struct {
	Username  string
	UserID    string
	SessionID string
	CSRFToken string
}

// TwoFactorRequiredError is returned by Login when a verification code is needed
type TwoFactorRequiredError struct {
	Username   string
	Identifier string
}

func (e *TwoFactorRequiredError) Error() string {
	return fmt.Sprintf("two-factor authentication required for %s", e.Username)
}

// Unwrap lets callers match the error with errs.IsType
func (e *TwoFactorRequiredError) Unwrap() error {
	return errs.New(errs.ErrorTypeTwoFactor, http.StatusOK, "verification code required")
}

type loginResponse struct {
	Authenticated     bool   `json:"authenticated"`
	User              bool   `json:"user"`
	UserID            string `json:"userId"`
	Status            string `json:"status"`
	Message           string `json:"message"`
	ErrorType         string `json:"error_type"`
	CheckpointURL     string `json:"checkpoint_url"`
	TwoFactorRequired bool   `json:"two_factor_required"`
	TwoFactorInfo     struct {
		TwoFactorIdentifier string `json:"two_factor_identifier"`
		Username            string `json:"username"`
	} `json:"two_factor_info"`
}

// Login performs the browser password login
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	username = SanitizeUsername(username)
	if err := c.fetchCSRFToken(ctx); err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("enc_password", fmt.Sprintf("#PWD_INSTAGRAM_BROWSER:0:%d:%s", time.Now().Unix(), password))
	form.Set("queryParams", "{}")
	form.Set("optIntoOneTap", "false")

	resp, err := c.postForm(ctx, LoginEndpoint, form)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.TwoFactorRequired:
		c.logger.InfoWithFields("two-factor authentication required", map[string]interface{}{
			"username": username,
		})
		return nil, &TwoFactorRequiredError{Username: username, Identifier: resp.TwoFactorInfo.TwoFactorIdentifier}
	case resp.CheckpointURL != "" || resp.ErrorType == "checkpoint_required" || resp.Message == "checkpoint_required":
		return nil, errs.New(errs.ErrorTypeCheckpointRequired, http.StatusBadRequest,
			"login requires a security check, complete it in a browser at %s%s", c.baseURL, resp.CheckpointURL)
	case resp.Authenticated:
		return c.completeLogin(username, resp.UserID)
	case !resp.User:
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "login error: user %s does not exist", username)
	default:
		msg := resp.Message
		if msg == "" {
			msg = "wrong password"
		}
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "login error: %s", msg)
	}
}

// TwoFactorLogin finishes a login interrupted by TwoFactorRequiredError
func (c *Client) TwoFactorLogin(ctx context.Context, challenge *TwoFactorRequiredError, code string) (*Session, error) {
	form := url.Values{}
	form.Set("username", challenge.Username)
	form.Set("verificationCode", strings.TrimSpace(code))
	form.Set("identifier", challenge.Identifier)
	form.Set("queryParams", "{}")

	resp, err := c.postForm(ctx, TwoFactorEndpoint, form)
	if err != nil {
		return nil, err
	}
	if !resp.Authenticated {
		msg := resp.Message
		if msg == "" {
			msg = "invalid verification code"
		}
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusUnauthorized, "2FA error: %s", msg)
	}
	return c.completeLogin(challenge.Username, resp.UserID)
}

// LoadSession restores a stored session into the cookie jar
func (c *Client) LoadSession(s *Session) error {
	if s == nil || s.SessionID == "" {
		return errs.New(errs.ErrorTypeAuth, 0, "session has no session id")
	}

	userID := s.UserID
	if userID == "" {
		userID = sessionUserIDRegex.FindString(s.SessionID)
	}

	cookies := []*http.Cookie{{Name: "sessionid", Value: s.SessionID, Path: "/"}}
	if s.CSRFToken != "" {
		cookies = append(cookies, &http.Cookie{Name: "csrftoken", Value: s.CSRFToken, Path: "/"})
		c.SetHeader("X-CSRFToken", s.CSRFToken)
	}
	if userID != "" {
		cookies = append(cookies, &http.Cookie{Name: "ds_user_id", Value: userID, Path: "/"})
	}
	c.httpClient.Jar.SetCookies(c.baseHost(), cookies)

	c.mu.Lock()
	c.username = s.Username
	c.userID = userID
	c.mu.Unlock()

	c.logger.InfoWithFields("session restored", map[string]interface{}{
		"username": s.Username,
		"user_id":  userID,
	})
	return nil
}

// Session exports the current authentication cookies
func (c *Client) Session() *Session {
	s := &Session{}
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseHost()) {
		switch cookie.Name {
		case "sessionid":
			s.SessionID = cookie.Value
		case "csrftoken":
			s.CSRFToken = cookie.Value
		case "ds_user_id":
			s.UserID = cookie.Value
		}
	}

	c.mu.RLock()
	s.Username = c.username
	if c.userID != "" {
		s.UserID = c.userID
	}
	c.mu.RUnlock()
	return s
}

// LoggedIn reports whether a session is attached
func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID != ""
}

// Username returns the logged-in user's name
func (c *Client) Username() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.username
}

// Logout ends the session on the server and forgets it locally
func (c *Client) Logout(ctx context.Context) error {
	if !c.LoggedIn() {
		return nil
	}
	form := url.Values{}
	form.Set("one_tap_app_login", "true")
	_, err := c.post(ctx, LogoutEndpoint, form)

	c.httpClient.Jar.SetCookies(c.baseHost(), []*http.Cookie{
		{Name: "sessionid", Value: "", Path: "/", MaxAge: -1},
		{Name: "ds_user_id", Value: "", Path: "/", MaxAge: -1},
	})
	c.mu.Lock()
	c.username, c.userID = "", ""
	c.mu.Unlock()
	return err
}

// fetchCSRFToken loads the login page so the server sets the csrftoken cookie
func (c *Client) fetchCSRFToken(ctx context.Context) error {
	resp, err := c.get(ctx, ratelimit.KindAPI, c.baseURL+LoginPageEndpoint)
	if err != nil {
		return fmt.Errorf("failed to load login page: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	token := c.cookie("csrftoken")
	if token == "" {
		return errs.New(errs.ErrorTypeAuth, resp.StatusCode, "failed to get CSRF token")
	}
	c.SetHeader("X-CSRFToken", token)
	return nil
}

func (c *Client) completeLogin(username, userID string) (*Session, error) {
	if c.cookie("sessionid") == "" {
		return nil, errs.New(errs.ErrorTypeAuth, http.StatusOK, "login succeeded without a session cookie")
	}
	if userID == "" {
		userID = c.cookie("ds_user_id")
	}

	c.mu.Lock()
	c.username = username
	c.userID = userID
	c.mu.Unlock()

	c.logger.InfoWithFields("logged in", map[string]interface{}{
		"username": username,
		"user_id":  userID,
	})
	return c.Session(), nil
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (*loginResponse, error) {
	body, err := c.post(ctx, endpoint, form)
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := c.decode(endpoint, http.StatusOK, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post sends a form to the web API; login errors come back as 400 with a JSON body
func (c *Client) post(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx, ratelimit.KindAPI); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeUnknown, 0, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+LoginPageEndpoint)
	if token := c.cookie("csrftoken"); token != "" {
		req.Header.Set("X-CSRFToken", token)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(err, errs.ErrorTypeNetwork, resp.StatusCode, "failed to read response body")
	}
	if resp.StatusCode == http.StatusBadRequest && json.Valid(body) {
		return body, nil
	}
	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) cookie(name string) string {
	for _, cookie := range c.httpClient.Jar.Cookies(c.baseHost()) {
		if cookie.Name == name {
			return cookie.Value
		}
	}
	return ""
}
