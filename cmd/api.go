package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/epg-sync/epgctl/internal/formatter"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/services"
	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend with the stored session.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requiredArg(cmd, "path")
	if err != nil {
		return err
	}

	query, err := parseQuery(cmd.StringSlice("query"))
	if err != nil {
		return err
	}

	if err := r.restore(); err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Get(ctx, path, query)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}

	return r.writeRaw(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request to the backend with the stored session.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path, err := requiredArg(cmd, "path")
	if err != nil {
		return err
	}

	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}
	if !json.Valid([]byte(data)) {
		return fmt.Errorf("%w: data is not valid JSON", shared.ErrInvalidInput)
	}

	if err := r.restore(); err != nil {
		return err
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.client.Post(ctx, path, nil, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := resp.Err(); err != nil {
		return err
	}

	return r.writeRaw(resp, true)
}

// adminDump is the snapshot written by [Runner.APIDump].
type adminDump struct {
	Server   string                `json:"server"`
	User     any                   `json:"user,omitempty"`
	Channels any                   `json:"channels,omitempty"`
	Mappings any                   `json:"mappings,omitempty"`
	SyncLogs []models.SyncLogEntry `json:"sync_logs"`
	Errors   []dumpError           `json:"errors,omitempty"`
}

type dumpError struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// APIDump fetches the admin state and the local sync log into one JSON document.
//
// Failed endpoints are recorded in the dump instead of aborting it.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireAuth(); err != nil {
		return err
	}

	r.logger.Info("dumping admin state")

	dump := adminDump{Server: r.client.BaseURL(), SyncLogs: r.syncLog.Entries()}
	for _, target := range []struct {
		endpoint string
		dst      *any
	}{
		{"/auth/me", &dump.User},
		{"/admin/channels", &dump.Channels},
		{"/admin/channel-mappings", &dump.Mappings},
	} {
		data, err := r.fetchData(ctx, target.endpoint)
		if err != nil {
			r.logger.Warn("dump request failed", "endpoint", target.endpoint, "error", err)
			dump.Errors = append(dump.Errors, dumpError{Endpoint: target.endpoint, Error: err.Error()})
			continue
		}
		*target.dst = data
	}

	if path := cmd.String("output"); path != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := formatter.WriteFile(path, data); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", path)
		}
	}

	return r.writeJSON(dump, cmd.Bool("pretty"))
}

// fetchData GETs endpoint and returns the envelope's data field, or the whole body when there is none.
func (r *Runner) fetchData(ctx context.Context, endpoint string) (any, error) {
	resp, err := r.client.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	if body, ok := resp.JSONData.(map[string]any); ok {
		if data, ok := body["data"]; ok {
			return data, nil
		}
	}
	return resp.JSONData, nil
}

func (r *Runner) writeRaw(resp *services.RawResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// parseQuery turns repeated key=value flags into query parameters.
func parseQuery(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	query := url.Values{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: query %q must be key=value", shared.ErrInvalidFlag, pair)
		}
		query.Add(key, value)
	}
	return query, nil
}
