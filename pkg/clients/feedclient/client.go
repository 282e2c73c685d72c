package feedclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
)

// memberDTO is a member as served by the workforce feed
type memberDTO struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Rank           string  `json:"rank"`
	Station        string  `json:"station"`
	SeniorityYears float64 `json:"seniority_years"`
}

// shiftDTO is a worked shift as served by the workforce feed
type shiftDTO struct {
	ID       string  `json:"id"`
	MemberID string  `json:"member_id"`
	Date     string  `json:"date"`
	Type     string  `json:"type"`
	Hours    float64 `json:"hours"`
	Recall   bool    `json:"recall"`
}

type membersResponse struct {
	Members []memberDTO `json:"members"`
}

type shiftsResponse struct {
	Shifts []shiftDTO `json:"shifts"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client reads members and worked shifts from the workforce feed
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient creates a feed client. token is sent as a bearer token when set.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, _ error) bool {
			return r != nil && r.StatusCode() >= 500
		})
	if token != "" {
		client.SetAuthToken(token)
	}

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// FetchMembers returns the members rostered at a station
func (c *Client) FetchMembers(ctx context.Context, station string) ([]model.Member, error) {
	var body membersResponse
	var apiErr errorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("station", station).
		SetResult(&body).
		SetError(&apiErr).
		Get("/members")
	if err != nil {
		return nil, fmt.Errorf("failed to call members feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("members feed returned %d: %s", resp.StatusCode(), apiErr.Error)
	}

	members := make([]model.Member, 0, len(body.Members))
	for i, m := range body.Members {
		if m.ID == "" {
			return nil, fmt.Errorf("member %d has no id", i)
		}
		members = append(members, model.Member{
			ID:             m.ID,
			Name:           m.Name,
			Rank:           m.Rank,
			Station:        m.Station,
			SeniorityYears: m.SeniorityYears,
		})
	}

	c.logger.Debug("Fetched members from feed", zap.String("station", station), zap.Int("count", len(members)))
	return members, nil
}

// FetchShiftRecords returns the worked shifts in the inclusive date range
func (c *Client) FetchShiftRecords(ctx context.Context, from, to time.Time) ([]model.ShiftRecord, error) {
	var body shiftsResponse
	var apiErr errorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from": from.Format(model.DateLayout),
			"to":   to.Format(model.DateLayout),
		}).
		SetResult(&body).
		SetError(&apiErr).
		Get("/shifts")
	if err != nil {
		return nil, fmt.Errorf("failed to call shifts feed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("shifts feed returned %d: %s", resp.StatusCode(), apiErr.Error)
	}

	records := make([]model.ShiftRecord, 0, len(body.Shifts))
	for i, s := range body.Shifts {
		record, err := s.toRecord()
		if err != nil {
			return nil, fmt.Errorf("invalid shift %d (%s): %w", i, s.ID, err)
		}
		records = append(records, record)
	}

	c.logger.Debug("Fetched shift records from feed",
		zap.String("from", from.Format(model.DateLayout)),
		zap.String("to", to.Format(model.DateLayout)),
		zap.Int("count", len(records)))
	return records, nil
}

func (s shiftDTO) toRecord() (model.ShiftRecord, error) {
	if s.MemberID == "" {
		return model.ShiftRecord{}, fmt.Errorf("missing member id")
	}
	date, err := model.ParseDate(s.Date)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	shiftType, err := model.ParseShiftType(s.Type)
	if err != nil {
		return model.ShiftRecord{}, err
	}
	if s.Hours < 0 || s.Hours > 24 {
		return model.ShiftRecord{}, fmt.Errorf("hours %.1f out of range", s.Hours)
	}

	return model.ShiftRecord{
		ID:       s.ID,
		MemberID: s.MemberID,
		Date:     date,
		Type:     shiftType,
		Hours:    s.Hours,
		Recall:   s.Recall,
	}, nil
}
