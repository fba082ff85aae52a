package upstream

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// flexString accepts a JSON string, number, bool or null.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f flexString) String() string {
	return strings.TrimSpace(string(f))
}

// Int returns the value as an integer, or 0 when it is not one.
func (f flexString) Int() int {
	n, err := strconv.Atoi(f.String())
	if err != nil {
		return 0
	}
	return n
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"January 2, 2006",
	"2006-01-02",
}

// Time parses unix seconds or one of the known layouts. Unknown formats yield
// the zero time.
func (f flexString) Time() time.Time {
	s := f.String()
	if s == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(n, 0).UTC()
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}

type segmentsEnvelope struct {
	Data struct {
		Segments []json.RawMessage `json:"segments"`
	} `json:"data"`
}

type matchSegment struct {
	Team1          flexString `json:"team1"`
	Team2          flexString `json:"team2"`
	Score1         flexString `json:"score1"`
	Score2         flexString `json:"score2"`
	MatchEvent     flexString `json:"match_event"`
	TournamentName flexString `json:"tournament_name"`
	MatchSeries    flexString `json:"match_series"`
	RoundInfo      flexString `json:"round_info"`
	UnixTimestamp  flexString `json:"unix_timestamp"`
	MatchPage      flexString `json:"match_page"`
	ID             flexString `json:"id"`
}

type rankingsEnvelope struct {
	Data []json.RawMessage `json:"data"`
}

type rankingSegment struct {
	Rank       flexString `json:"rank"`
	Team       flexString `json:"team"`
	Country    flexString `json:"country"`
	LastPlayed flexString `json:"last_played"`
	Record     flexString `json:"record"`
	Logo       flexString `json:"logo"`
}

type newsSegment struct {
	Title       flexString `json:"title"`
	Description flexString `json:"description"`
	Date        flexString `json:"date"`
	Author      flexString `json:"author"`
	URLPath     flexString `json:"url_path"`
}

var matchPageID = regexp.MustCompile(`(?:^|/)(\d+)(?:/|$)`)

// providerMatchID extracts the numeric id from a match page link such as
// "https://www.vlr.gg/314588/fnatic-vs-heretics".
func providerMatchID(page string) string {
	m := matchPageID.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return m[1]
}
