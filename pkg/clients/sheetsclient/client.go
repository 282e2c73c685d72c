package sheetsclient

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/watchtower/internal/config"
	"github.com/jakechorley/watchtower/pkg/utils"
)

// Client writes published rosters to a Google spreadsheet, one tab per roster period
type Client struct {
	service *sheets.Service
	logger  *zap.Logger
}

// NewClient authorises against the roster sheet. When no token is stored for env the browser
// consent flow runs first and the new token is saved for the next run.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env string, logger *zap.Logger) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build roster sheet OAuth config: %w", err)
	}

	tokens, err := utils.DefaultTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open roster sheet token store: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, env, tokens, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to authorise roster sheet access: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create roster sheet service: %w", err)
	}

	logger.Debug("Roster sheet client ready", zap.String("environment", env))
	return &Client{service: service, logger: logger}, nil
}

// NewClientWithService wraps a Sheets service built elsewhere, such as one pointed at a test endpoint
func NewClientWithService(service *sheets.Service) *Client {
	return &Client{service: service, logger: zap.NewNop()}
}

// tabRange builds an A1 range on a tab. Titles are quoted since roster tabs contain spaces.
func tabRange(title, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(title, "'", "''"), cells)
}

func (c *Client) hasTab(ctx context.Context, spreadsheetID, title string) (bool, error) {
	spreadsheet, err := c.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("failed to list roster tabs: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == title {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) readTab(ctx context.Context, spreadsheetID, title string) ([][]interface{}, error) {
	resp, err := c.service.Spreadsheets.Values.Get(spreadsheetID, tabRange(title, "A1:ZZ")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read roster tab %q: %w", title, err)
	}
	return resp.Values, nil
}

func (c *Client) addTab(ctx context.Context, spreadsheetID, title string) error {
	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add roster tab %q: %w", title, err)
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return fmt.Errorf("failed to add roster tab %q: empty reply", title)
	}
	c.logger.Debug("Added roster tab", zap.String("tab", title), zap.Int64("sheet_id", resp.Replies[0].AddSheet.Properties.SheetId))
	return nil
}

func (c *Client) writeTab(ctx context.Context, spreadsheetID, title string, values [][]interface{}) error {
	_, err := c.service.Spreadsheets.Values.Update(spreadsheetID, tabRange(title, "A1"), &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write roster tab %q: %w", title, err)
	}
	return nil
}
