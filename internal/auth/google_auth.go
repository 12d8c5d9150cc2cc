package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
)

// CalendarAuthorizer runs the OAuth consent flow for read-only calendar
// access and stores the resulting token for the Google calendar source.
type CalendarAuthorizer struct {
	credentialsFile string
	tokenFile       string
	callbackPort    int
	// Prompt shows the consent URL to the user.
	Prompt func(authURL string)
	logger *zap.Logger
}

func NewCalendarAuthorizer(credentialsFile, tokenFile string, callbackPort int, logger *zap.Logger) *CalendarAuthorizer {
	return &CalendarAuthorizer{
		credentialsFile: credentialsFile,
		tokenFile:       tokenFile,
		callbackPort:    callbackPort,
		Prompt: func(authURL string) {
			fmt.Printf("Open this URL in your browser to grant calendar access:\n\n%s\n\n", authURL)
		},
		logger: logger,
	}
}

// Authorize waits for the user to grant access, exchanges the code and
// writes the token file.
func (a *CalendarAuthorizer) Authorize(ctx context.Context) error {
	b, err := os.ReadFile(a.credentialsFile)
	if err != nil {
		return fmt.Errorf("unable to read client secret file %s: %w", a.credentialsFile, err)
	}
	config, err := google.ConfigFromJSON(b, gcal.CalendarReadonlyScope)
	if err != nil {
		return fmt.Errorf("unable to parse client secret file to config: %w", err)
	}

	state := uuid.NewString()
	callback := NewCallbackServer(a.callbackPort, state, a.logger)
	redirectURL, err := callback.Listen()
	if err != nil {
		return err
	}
	defer callback.Stop()

	config.RedirectURL = redirectURL
	a.Prompt(config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	code, err := callback.Wait(ctx)
	if err != nil {
		return err
	}

	tok, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	if err := saveToken(a.tokenFile, tok); err != nil {
		return err
	}

	a.logger.Info("Calendar token saved", zap.String("path", a.tokenFile))
	return nil
}

func saveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable to create token directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}
