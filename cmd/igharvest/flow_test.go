package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"igharvest/pkg/auth"
	"igharvest/pkg/config"
	"igharvest/pkg/harvest"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/prompt"
)

type fakeLoginClient struct {
	passwords map[string]string
	twoFactor map[string]string
	loaded    *instagram.Session
	attempts  int
}

func (f *fakeLoginClient) Login(ctx context.Context, username, password string) (*instagram.Session, error) {
	f.attempts++
	if f.passwords[username] != password {
		return nil, errors.New("bad password")
	}
	if _, ok := f.twoFactor[username]; ok {
		return nil, &instagram.TwoFactorRequiredError{Username: username, Identifier: "id-1"}
	}
	return &instagram.Session{Username: username, UserID: "1", SessionID: "sid-" + username}, nil
}

func (f *fakeLoginClient) TwoFactorLogin(ctx context.Context, challenge *instagram.TwoFactorRequiredError, code string) (*instagram.Session, error) {
	if f.twoFactor[challenge.Username] != code {
		return nil, errors.New("invalid verification code")
	}
	return &instagram.Session{Username: challenge.Username, UserID: "2", SessionID: "sid-2fa"}, nil
}

func (f *fakeLoginClient) LoadSession(s *instagram.Session) error {
	f.loaded = s
	return nil
}

type fakeSessions struct {
	accounts map[string]*auth.Account
}

func (f *fakeSessions) Retrieve(username string) (*auth.Account, error) {
	if a, ok := f.accounts[username]; ok {
		return a, nil
	}
	return nil, auth.ErrCredentialsNotFound
}

func (f *fakeSessions) Store(account *auth.Account) error {
	f.accounts[account.Username] = account
	return nil
}

func scripted(lines ...string) (*prompt.Prompter, *bytes.Buffer) {
	var out bytes.Buffer
	return prompt.New(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out), &out
}

func TestAskPlanWithoutLogin(t *testing.T) {
	p, out := scripted(
		"1,3",        // pictures and thumbnails
		"",           // compress: default yes
		"",           // log in: default no
		"2",          // hashtag
		"",           // empty query is asked again
		"cats",       //
		"y",          // limit period
		"2024-02-01", // since
		"2024-01-01", // until
		"maybe",      // not a yes/no answer
		"y",          // limit count
		"0",          // not positive
		"5",
	)

	pl, err := askPlan(context.Background(), p, &fakeLoginClient{}, nil, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, harvest.Media{Pictures: true, Thumbnails: true}, pl.Loader.Media)
	assert.True(t, pl.Loader.CompressJSON)
	assert.False(t, pl.LoggedIn)
	assert.Equal(t, harvest.Target{Kind: harvest.Hashtag, Query: "cats"}, pl.Target)

	require.NotNil(t, pl.Window)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), pl.Window.Lower)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), pl.Window.Upper)

	require.NotNil(t, pl.MaxPosts)
	assert.Equal(t, 5, *pl.MaxPosts)

	text := out.String()
	assert.Contains(t, text, "Which hashtag do you want to search for?")
	assert.Contains(t, text, "Please respond with 'yes' or 'no' (or 'y' or 'n').")
	assert.NotContains(t, text, "private profile", "login-only targets are hidden")
}

func TestAskPlanLoginRetriesAndTwoFactor(t *testing.T) {
	client := &fakeLoginClient{
		passwords: map[string]string{"alice": "secret"},
		twoFactor: map[string]string{"alice": "123456"},
	}
	sessions := &fakeSessions{accounts: map[string]*auth.Account{}}

	p, out := scripted(
		"",       // no media
		"n",      // no compression
		"y",      // log in
		"@alice", //
		"wrong",  // password fails
		"alice",  //
		"secret", //
		"123456", // 2FA code
		"",       // save session: default yes
		"7",      // feed
		"",       // no period
		"",       // no count limit
	)

	pl, err := askPlan(context.Background(), p, client, sessions, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, client.attempts)
	assert.Contains(t, out.String(), "Login failed: bad password")
	assert.True(t, pl.LoggedIn)
	assert.Equal(t, harvest.Media{}, pl.Loader.Media)
	assert.False(t, pl.Loader.CompressJSON)
	assert.Equal(t, harvest.Target{Kind: harvest.Feed}, pl.Target)
	assert.Nil(t, pl.Window)
	assert.Nil(t, pl.MaxPosts)

	require.Contains(t, sessions.accounts, "alice")
	assert.Equal(t, "sid-2fa", sessions.accounts["alice"].SessionID)
}

func TestLoginReusesSavedSession(t *testing.T) {
	client := &fakeLoginClient{}
	sessions := &fakeSessions{accounts: map[string]*auth.Account{
		"bob": {Username: "bob", UserID: "7", SessionID: "stored"},
	}}

	p, _ := scripted("bob", "")
	session, err := login(context.Background(), p, client, sessions, logger.NewNopLogger())
	require.NoError(t, err)

	assert.Equal(t, "stored", session.SessionID)
	require.NotNil(t, client.loaded)
	assert.Equal(t, "7", client.loaded.UserID)
	assert.Zero(t, client.attempts, "no password login happens")
}

func TestAskPlanStopsAtEndOfInput(t *testing.T) {
	p, _ := scripted("1")
	_, err := askPlan(context.Background(), p, &fakeLoginClient{}, nil, logger.NewNopLogger())
	assert.Error(t, err)
}

func TestMaskedConfig(t *testing.T) {
	c := *cfgForTest()
	c.Archive.PostgresDSN = "postgres://user:pw@db/harvest"
	c.Archive.S3.SecretAccessKey = "secret"

	masked := maskedConfig(&c)
	assert.Equal(t, "********", masked.Archive.PostgresDSN)
	assert.Equal(t, "********", masked.Archive.S3.SecretAccessKey)
	assert.Empty(t, masked.Archive.S3.AccessKeyID)
	assert.Equal(t, "postgres://user:pw@db/harvest", c.Archive.PostgresDSN)
}

func cfgForTest() *config.Config {
	return config.DefaultConfig()
}
