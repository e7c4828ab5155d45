package audit

import (
	"strings"
	"time"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// Search keeps entries whose action or actor contains term, ignoring case.
// An empty term matches everything.
func Search(entries []Entry, term string) []Entry {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return append([]Entry(nil), entries...)
	}
	var out []Entry
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Action), term) || strings.Contains(strings.ToLower(e.Actor), term) {
			out = append(out, e)
		}
	}
	return out
}

// ByActor keeps entries recorded by actor (case-insensitive exact match).
func ByActor(entries []Entry, actor string) []Entry {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return append([]Entry(nil), entries...)
	}
	var out []Entry
	for _, e := range entries {
		if strings.EqualFold(e.Actor, actor) {
			out = append(out, e)
		}
	}
	return out
}

// Stats are the headline numbers of the audit trail view.
type Stats struct {
	Total        int       `json:"total_events"`
	UniqueActors int       `json:"active_roles"`
	LastActivity time.Time `json:"last_activity,omitempty"`
}

// LastSync formats LastActivity as HH:MM UTC, or "--:--" for an empty log.
func (s Stats) LastSync() string {
	if s.LastActivity.IsZero() {
		return "--:--"
	}
	return s.LastActivity.UTC().Format("15:04")
}

func Summarize(entries []Entry) Stats {
	st := Stats{Total: len(entries)}
	actors := map[string]struct{}{}
	for _, e := range entries {
		actors[e.Actor] = struct{}{}
		if e.CreatedAt.After(st.LastActivity) {
			st.LastActivity = e.CreatedAt
		}
	}
	st.UniqueActors = len(actors)
	return st
}

// Table renders the history as a dataset with user, action and created_at
// columns so it can be exported like any other table.
func Table(entries []Entry) *dataset.Dataset {
	rows := make([][]dataset.Cell, len(entries))
	for i, e := range entries {
		rows[i] = []dataset.Cell{
			dataset.Str(e.Actor),
			dataset.Str(e.Action),
			dataset.Str(e.CreatedAt.UTC().Format(time.RFC3339)),
		}
	}
	d, _ := dataset.New([]string{"user", "action", "created_at"}, rows)
	return d
}
