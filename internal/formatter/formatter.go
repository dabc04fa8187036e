// package formatter renders channels, mappings, programs and sync logs as tables, CSV, JSON or YAML
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/epg-sync/epgctl/internal/models"
	"github.com/epg-sync/epgctl/internal/shared"
	"gopkg.in/yaml.v3"
)

// TimeLayout is the wall-clock layout used in tables.
const TimeLayout = "2006-01-02 15:04"

// Format selects an output rendering.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// ParseFormat validates s. The empty string selects [FormatTable].
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want table, json, yaml or csv)", shared.ErrInvalidFlag, s)
	}
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// newTable builds a bordered table with a bold header row.
func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Encode renders v as JSON or YAML.
func Encode(v any, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := shared.MarshalJSON(v, true)
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %s is not an encoding", shared.ErrInvalidFlag, f)
	}
}

// Write renders v to w in format f.
//
// Table and CSV renderings are produced by the supplied functions; either may be nil when the
// value has no such rendering.
func Write(w io.Writer, f Format, v any, tableFn func() string, csvFn func() ([]byte, error)) error {
	var (
		data []byte
		err  error
	)

	switch f {
	case FormatJSON, FormatYAML:
		data, err = Encode(v, f)
	case FormatCSV:
		if csvFn == nil {
			return fmt.Errorf("%w: csv output is not available here", shared.ErrInvalidFlag)
		}
		data, err = csvFn()
	default:
		if tableFn == nil {
			return fmt.Errorf("%w: table output is not available here", shared.ErrInvalidFlag)
		}
		data = []byte(tableFn() + "\n")
	}
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// ChannelsTable renders channels as a table.
func ChannelsTable(channels []models.Channel) string {
	t := newTable("ID", "Channel ID", "Name", "Category", "Area", "Timezone", "Active")
	for _, c := range channels {
		t.Row(
			strconv.FormatInt(c.ID, 10),
			c.ChannelID,
			c.DisplayName,
			c.Category,
			c.Area,
			c.Timezone,
			yesNo(c.Active()),
		)
	}
	return t.String()
}

// ChannelDetail renders every field of one channel as a two-column table.
func ChannelDetail(c models.Channel, loc *time.Location) string {
	t := newTable("Field", "Value")
	t.Row("ID", strconv.FormatInt(c.ID, 10))
	t.Row("Channel ID", c.ChannelID)
	t.Row("Name", c.DisplayName)
	t.Row("Category", c.Category)
	t.Row("Regexp", c.Regexp)
	t.Row("Area", c.Area)
	t.Row("Logo", c.LogoURL)
	t.Row("Timezone", c.Timezone)
	t.Row("Active", yesNo(c.Active()))
	t.Row("Created", FormatTime(c.CreatedAt, loc))
	t.Row("Updated", FormatTime(c.UpdatedAt, loc))
	return t.String()
}

// ChannelsCSV renders channels in the batch-import line format.
//
// The header line is prefixed with "#" so the output can be fed back to a batch import.
func ChannelsCSV(channels []models.Channel) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# " + strings.Join(models.BatchFields, ",") + "\n")

	writer := csv.NewWriter(&buf)
	for _, c := range channels {
		record := []string{c.ChannelID, c.DisplayName, c.Category, c.Area, c.LogoURL, c.Timezone}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// MappingsTable renders mappings with confidence as a percentage of maxConfidence.
func MappingsTable(mappings []models.ChannelMapping, maxConfidence float64) string {
	t := newTable("Canonical", "Provider", "Provider Channel", "Name", "Confidence", "Verified")
	for _, m := range mappings {
		t.Row(
			m.CanonicalID,
			m.ProviderID,
			m.ProviderChannelID,
			m.ProviderChannelName,
			Confidence(m, maxConfidence),
			yesNo(m.Verified()),
		)
	}
	return t.String()
}

// MappingsCSV renders mappings with the raw confidence score.
func MappingsCSV(mappings []models.ChannelMapping) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"canonical_id", "provider_id", "provider_channel_id", "provider_channel_name", "confidence", "is_verified"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range mappings {
		record := []string{
			m.CanonicalID,
			m.ProviderID,
			m.ProviderChannelID,
			m.ProviderChannelName,
			strconv.FormatFloat(m.Confidence, 'f', -1, 64),
			strconv.Itoa(int(m.IsVerified)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// Confidence formats a mapping's score as "NN%".
func Confidence(m models.ChannelMapping, maxConfidence float64) string {
	return fmt.Sprintf("%.0f%%", m.ConfidencePercent(maxConfidence))
}

// ProgramsTable renders programs with times in loc.
func ProgramsTable(programs []models.Program, loc *time.Location) string {
	t := newTable("Channel", "Start", "End", "Title", "Category", "Provider")
	for _, p := range programs {
		t.Row(
			p.ChannelID,
			FormatTime(p.StartTime, loc),
			FormatTime(p.EndTime, loc),
			p.Title,
			p.Category,
			p.ProviderID,
		)
	}
	return t.String()
}

// PageFooter describes the current page, e.g. "Page 2 of 5 (230 programs)".
func PageFooter(page, totalPages, total int, noun string) string {
	if totalPages == 0 {
		return fmt.Sprintf("No %s", noun)
	}
	return fmt.Sprintf("Page %d of %d (%d %s)", page, totalPages, total, noun)
}

// SyncLogTable renders sync log entries, newest first, with times in loc.
func SyncLogTable(entries []models.SyncLogEntry, loc *time.Location) string {
	t := newTable("Time", "Channel", "Status", "Message")
	for _, e := range entries {
		t.Row(FormatTime(e.Timestamp, loc), e.ChannelName, string(e.Status), e.Message)
	}
	return t.String()
}

// DIYPTable renders one DIYP channel-day.
func DIYPTable(s models.DIYPSchedule) string {
	t := newTable("Start", "End", "Title")
	for _, p := range s.EPGData {
		t.Row(p.Start, p.End, p.Title)
	}
	return fmt.Sprintf("%s  %s\n%s", s.ChannelName, s.Date, t.String())
}

// XMLTVSummary parses an XMLTV document and reports channel and programme counts.
func XMLTVSummary(data []byte) (string, error) {
	var doc models.XMLTV
	if err := xml.Unmarshal(data, &doc); err != nil {
		return "", fmt.Errorf("failed to parse XMLTV: %w", err)
	}
	return fmt.Sprintf("%d channel(s), %d programme(s)", len(doc.Channels), len(doc.Programmes)), nil
}

// WriteFile writes data to path, creating or truncating it.
func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// FormatTime renders t in loc with [TimeLayout]; the zero time renders as "-".
func FormatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimeLayout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
