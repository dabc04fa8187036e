package tasks

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/shared"
)

// ChannelAPI is the backend surface the importer needs. [services.Client] implements it.
type ChannelAPI interface {
	ListChannels(ctx context.Context) ([]models.Channel, error)
	BatchCreateChannels(ctx context.Context, inputs []models.ChannelInput) ([]models.Channel, error)
}

// LineError is a batch line that could not be parsed.
type LineError struct {
	Line int
	Err  error
}

func (e LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }
func (e LineError) Unwrap() error { return e.Err }

// ParseBatch parses one channel per non-blank line (see [models.ParseBatchLine]).
//
// Lines starting with "#" are skipped, so CSV exported by the formatter can be fed back in.
// Every bad line is reported; the returned error joins them. Input with no channel lines is
// rejected with [shared.ErrInvalidInput].
func ParseBatch(text string) ([]models.ChannelInput, error) {
	var (
		inputs []models.ChannelInput
		errs   []error
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		in, err := models.ParseBatchLine(line)
		if err == nil {
			err = in.Validate()
		}
		if err != nil {
			errs = append(errs, LineError{Line: lineNo, Err: err})
			continue
		}
		inputs = append(inputs, in)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read batch: %v", shared.ErrInvalidInput, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: batch contains no channels", shared.ErrInvalidInput)
	}
	return inputs, nil
}

// ImportResult summarizes a batch import.
type ImportResult struct {
	Created  []models.Channel // Channels returned by the batch call
	Channels []models.Channel // Reloaded channel list
}

// Importer validates a batch, submits it and reloads the channel list.
type Importer struct {
	api    ChannelAPI
	logger *log.Logger
}

// NewImporter creates a new Importer.
func NewImporter(api ChannelAPI, logger *log.Logger) *Importer {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Importer{api: api, logger: logger}
}

// Import parses text and creates every channel in one request.
//
// Validation errors are returned before any network call. A reload failure after a successful
// create is logged and leaves Channels nil.
func (i *Importer) Import(ctx context.Context, text string, progress chan<- ProgressUpdate) (*ImportResult, error) {
	inputs, err := ParseBatch(text)
	if err != nil {
		return nil, err
	}
	sendProgress(progress, parsedBatchUpdate(len(inputs)))

	sendProgress(progress, creatingChannelsUpdate(len(inputs)))
	created, err := i.api.BatchCreateChannels(ctx, inputs)
	if err != nil {
		return nil, err
	}
	i.logger.Info("batch created channels", "requested", len(inputs), "created", len(created))

	result := &ImportResult{Created: created}

	sendProgress(progress, reloadingChannelsUpdate())
	channels, err := i.api.ListChannels(ctx)
	if err != nil {
		i.logger.Warn("failed to reload channels after import", "error", err)
		return result, nil
	}
	result.Channels = channels
	return result, nil
}
