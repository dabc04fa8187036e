package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/epg-sync/epgctl/internal/models"
)

// pagination mirrors the backend's meta object.
type pagination struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Count  int `json:"count"`
}

type paginatedPrograms struct {
	Items []models.Program `json:"items"`
	Meta  *pagination      `json:"meta"`
}

// SearchPrograms runs a server-side paginated program search.
//
// Calls GET /admin/programs/search. ChannelID and Date are only sent when non-empty.
func (c *Client) SearchPrograms(ctx context.Context, search models.ProgramSearch) (models.Page[models.Program], error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(search.Page, 1)))
	if search.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(search.PageSize))
	}
	if search.Timezone != "" {
		query.Set("timezone", search.Timezone)
	}
	if search.ChannelID != "" && search.ChannelID != models.AllFilter {
		query.Set("channel_id", search.ChannelID)
	}
	if search.Date != "" {
		query.Set("date", search.Date)
	}

	var result paginatedPrograms
	if _, err := c.doRequest(ctx, http.MethodGet, "/admin/programs/search", query, nil, &result); err != nil {
		return models.Page[models.Program]{}, err
	}

	page := models.Page[models.Program]{Items: result.Items}
	if page.Items == nil {
		page.Items = []models.Program{}
	}
	if result.Meta != nil {
		page.Total = result.Meta.Total
	}
	return page, nil
}

// SyncRequest selects a channel and an inclusive date range (YYYY-MM-DD) to sync.
type SyncRequest struct {
	ChannelID string
	StartDate string
	EndDate   string
}

// SyncChannel asks the backend to fetch EPG data for one channel.
//
// Calls POST /admin/epg/sync with query parameters. Returns the backend's status message.
func (c *Client) SyncChannel(ctx context.Context, req SyncRequest) (string, error) {
	query := url.Values{}
	query.Set("channel_id", req.ChannelID)
	if req.StartDate != "" {
		query.Set("start_date", req.StartDate)
	}
	if req.EndDate != "" {
		query.Set("end_date", req.EndDate)
	}
	return c.syncRequest(ctx, "/admin/epg/sync", query)
}

// SyncAll starts the backend's full sync job. Calls POST /admin/job/sync?force=<bool>.
func (c *Client) SyncAll(ctx context.Context, force bool) (string, error) {
	query := url.Values{}
	query.Set("force", strconv.FormatBool(force))
	return c.syncRequest(ctx, "/admin/job/sync", query)
}

// syncRequest returns the data string when the backend sent one, else the envelope message.
func (c *Client) syncRequest(ctx context.Context, endpoint string, query url.Values) (string, error) {
	var data json.RawMessage
	message, err := c.doRequest(ctx, http.MethodPost, endpoint, query, nil, &data)
	if err != nil {
		return "", err
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil && text != "" {
		return text, nil
	}
	return message, nil
}

// XMLTV downloads the full XMLTV document. Calls GET /api/xmltv.
func (c *Client) XMLTV(ctx context.Context) ([]byte, error) {
	resp, err := c.Get(ctx, "/api/xmltv", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.Err()
	}
	return resp.Body, nil
}

// DIYP retrieves one channel-day in DIYP format. Calls GET /api/diyp?ch=&date=.
func (c *Client) DIYP(ctx context.Context, channel, date string) (*models.DIYPSchedule, error) {
	query := url.Values{}
	query.Set("ch", channel)
	query.Set("date", date)

	var schedule models.DIYPSchedule
	if _, err := c.doRequest(ctx, http.MethodGet, "/api/diyp", query, nil, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}
