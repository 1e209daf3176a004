package main

import (
	"context"
	"errors"
	"fmt"

	"igharvest/pkg/auth"
	"igharvest/pkg/harvest"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/prompt"
)

// loginClient is the part of *instagram.Client the login dialog drives
type loginClient interface {
	Login(ctx context.Context, username, password string) (*instagram.Session, error)
	TwoFactorLogin(ctx context.Context, challenge *instagram.TwoFactorRequiredError, code string) (*instagram.Session, error)
	LoadSession(s *instagram.Session) error
}

// sessionStore keeps sessions between runs; *auth.Manager implements it
type sessionStore interface {
	Retrieve(username string) (*auth.Account, error)
	Store(account *auth.Account) error
}

// plan is everything the user chose before a harvest starts
type plan struct {
	Loader   harvest.LoaderOptions
	LoggedIn bool
	Target   harvest.Target
	Window   *harvest.DateWindow
	MaxPosts *int
}

// askPlan walks the user through the harvest questions in order
func askPlan(ctx context.Context, p *prompt.Prompter, client loginClient, sessions sessionStore, log logger.Logger) (*plan, error) {
	var pl plan

	selected, err := p.MultiSelect("Which of these media do you want to download? (SPACE to mark)", harvest.MediaOptions)
	if err != nil {
		return nil, err
	}
	pl.Loader.Media = harvest.MediaFromSelection(selected)

	if pl.Loader.CompressJSON, err = p.YesNo("Do you want to compress jsons?", prompt.DefaultYes); err != nil {
		return nil, err
	}

	wantLogin, err := p.YesNo("Do you want to log in?", prompt.DefaultNo)
	if err != nil {
		return nil, err
	}
	if wantLogin {
		if _, err := login(ctx, p, client, sessions, log); err != nil {
			return nil, err
		}
		pl.LoggedIn = true
	}

	if pl.Target, err = askTarget(p, pl.LoggedIn); err != nil {
		return nil, err
	}

	limitPeriod, err := p.YesNo("Do you want to limit your search to a specific period? (Experimental)", prompt.DefaultNo)
	if err != nil {
		return nil, err
	}
	if limitPeriod {
		since, until, err := p.DateRange()
		if err != nil {
			return nil, err
		}
		window := harvest.NewDateWindow(since, until)
		pl.Window = &window
	}

	limitCount, err := p.YesNo("Do you limit your search to N number of posts?", prompt.DefaultNo)
	if err != nil {
		return nil, err
	}
	if limitCount {
		n, err := p.PositiveInt("How many posts?")
		if err != nil {
			return nil, err
		}
		pl.MaxPosts = &n
	}

	return &pl, nil
}

func askTarget(p *prompt.Prompter, loggedIn bool) (harvest.Target, error) {
	kinds := harvest.Kinds(loggedIn)
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}

	i, err := p.Select("What do you want to download?", names)
	if err != nil {
		return harvest.Target{}, err
	}
	target := harvest.Target{Kind: kinds[i]}

	if target.Kind.NeedsQuery() {
		query, err := p.Text(fmt.Sprintf("Which %s do you want to search for?", target.Kind))
		if err != nil {
			return harvest.Target{}, err
		}
		target.Query = query
	}
	return target, nil
}

// login asks for a username until a stored session is reused or a password
// login succeeds. Login failures are reported and start over; only input
// errors end the loop.
func login(ctx context.Context, p *prompt.Prompter, client loginClient, sessions sessionStore, log logger.Logger) (*instagram.Session, error) {
	for {
		username, err := p.Text("What is your Instagram username?")
		if err != nil {
			return nil, err
		}
		username = instagram.SanitizeUsername(username)

		if sessions != nil {
			if account, err := sessions.Retrieve(username); err == nil {
				reuse, err := p.YesNo(fmt.Sprintf("Use the saved session of %s?", username), prompt.DefaultYes)
				if err != nil {
					return nil, err
				}
				if reuse {
					session := account.Session()
					if err := client.LoadSession(session); err != nil {
						p.Println(fmt.Sprintf("Could not restore the saved session: %v", err))
						continue
					}
					log.WithField("username", username).Info("Restored saved session")
					return session, nil
				}
			}
		}

		password, err := p.Password("Password:")
		if err != nil {
			return nil, err
		}

		session, err := client.Login(ctx, username, password)
		var challenge *instagram.TwoFactorRequiredError
		if errors.As(err, &challenge) {
			code, cerr := p.Text("Enter the 2FA verification code:")
			if cerr != nil {
				return nil, cerr
			}
			session, err = client.TwoFactorLogin(ctx, challenge, code)
		}
		if err != nil {
			log.WithError(err).WithField("username", username).Warn("Login failed")
			p.Println(fmt.Sprintf("Login failed: %v", err))
			continue
		}

		log.WithField("username", username).Info("Logged in")

		if sessions != nil {
			save, err := p.YesNo("Do you want to save this session?", prompt.DefaultYes)
			if err != nil {
				return nil, err
			}
			if save {
				if err := sessions.Store(auth.AccountFromSession(session)); err != nil {
					log.WithError(err).Warn("Failed to save session")
					p.Println(fmt.Sprintf("Could not save the session: %v", err))
				}
			}
		}
		return session, nil
	}
}
