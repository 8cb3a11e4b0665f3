package passes

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spectrumcare/caredoc/internal/common"
	"github.com/spectrumcare/caredoc/internal/models"
)

// timelineDateLayouts are tried in order when parsing the date string a
// timeline event arrives with. The instruction asks for ISO dates, but the
// model sometimes answers with looser forms.
var timelineDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01",
	"2006",
}

func parseTimelineDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timelineDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ExtractTimeline builds a chronological event list from the document text.
// The model is instructed to estimate a date when the source wording is vague;
// events whose date cannot be parsed at all are dropped. The returned slice
// is sorted chronologically regardless of the order the model answered in.
func (r *Runner) ExtractTimeline(ctx context.Context, text, documentType string) ([]models.TimelineEvent, error) {
	instruction := fmt.Sprintf(`You are a document analysis specialist building a care timeline.

Task: Extract dated events from this %s document, in chronological order.

Rules:
- date: ISO format YYYY-MM-DD; if the document is vague ("early 2022", "last spring"), estimate the most likely date
- title: short event name; description: one sentence of detail
- category: e.g. "diagnosis", "assessment", "therapy", "education", "medical"
- importance: one of "low", "medium", "high", "critical"
- Sort the events oldest first

Output Format (JSON only, no markdown fences):
{
  "events": [
    {"date": "2021-09-15", "title": "Initial assessment", "description": "First developmental assessment at the community clinic.", "category": "assessment", "importance": "high"}
  ]
}

If no dated events are found, use an empty array.

Document Content:
%s`, documentType, truncateForPrompt(text, promptTextLimit))

	startTime := time.Now()
	response, err := r.chatJSON(ctx, "timeline", instruction)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Events []struct {
			Date        string `json:"date"`
			Title       string `json:"title"`
			Description string `json:"description"`
			Category    string `json:"category"`
			Importance  string `json:"importance"`
		} `json:"events"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, fmt.Errorf("timeline pass returned unparseable JSON: %w", err)
	}

	events := make([]models.TimelineEvent, 0, len(parsed.Events))
	for _, raw := range parsed.Events {
		if raw.Title == "" {
			continue
		}
		date, ok := parseTimelineDate(raw.Date)
		if !ok {
			r.logger.Warn().
				Str("date", raw.Date).
				Str("title", raw.Title).
				Msg("Dropping timeline event with unparseable date")
			continue
		}

		importance := models.Importance(raw.Importance)
		switch importance {
		case models.ImportanceLow, models.ImportanceMedium, models.ImportanceHigh, models.ImportanceCritical:
		default:
			importance = models.ImportanceMedium
		}

		events = append(events, models.TimelineEvent{
			ID:                 common.NewEventID(),
			Date:               date,
			Title:              raw.Title,
			Description:        raw.Description,
			Category:           raw.Category,
			Importance:         importance,
			SourceDocumentType: documentType,
			RelatedDocumentIDs: []string{},
			RelatedPeopleIDs:   []string{},
		})
	}

	// Model ordering is advisory only.
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})

	r.logger.Debug().
		Int("event_count", len(events)).
		Dur("duration", time.Since(startTime)).
		Msg("Timeline extraction completed")

	return events, nil
}
