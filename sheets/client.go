// ABOUTME: Google Sheets values client behind a small interface
// ABOUTME: Builds the sheets/v4 service from service-account or default credentials
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

// ValueInputOption makes the API parse cells as if typed by a user, so
// formulas render.
const ValueInputOption = "USER_ENTERED"

// ErrNoCredentials is returned when neither a credentials file nor
// application default credentials are available.
var ErrNoCredentials = errors.New("no Google credentials configured")

// ValuesAPI is the part of the Sheets API the uploader needs.
type ValuesAPI interface {
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
}

// Client talks to the real Sheets API.
type Client struct {
	svc *gsheets.Service
}

// NewClient builds a client from a service-account JSON file. An empty path
// falls back to application default credentials, which honour
// GOOGLE_APPLICATION_CREDENTIALS.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	var creds *google.Credentials
	if credentialsFile != "" {
		data, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials: %w", err)
		}
		creds, err = google.CredentialsFromJSON(ctx, data, gsheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("failed to parse credentials: %w", err)
		}
	} else {
		var err error
		creds, err = google.FindDefaultCredentials(ctx, gsheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
		}
	}

	svc, err := gsheets.NewService(ctx, option.WithTokenSource(creds.TokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, rng, &gsheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to clear %s: %w", rng, err)
	}
	return nil
}

func (c *Client) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	vr := &gsheets.ValueRange{
		Range:  rng,
		Values: values,
	}
	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, rng, vr).
		ValueInputOption(ValueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", rng, err)
	}
	return nil
}
