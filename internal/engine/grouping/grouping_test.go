package grouping

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

var utcMinus5 = time.FixedZone("UTC-5", -5*3600)

func at(id, ts string) model.Event {
	e := model.Event{RawEvent: model.RawEvent{ID: id, Timestamp: ts}}
	if t, err := model.ParseTimestamp(ts, time.UTC); err == nil {
		e.SetTime(t)
	}
	return e
}

func keys(groups []model.DateGroup) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		out = append(out, g.Key)
	}
	return out
}

func TestGroupByLocalDateUsesViewerZone(t *testing.T) {
	groups := GroupByLocalDate([]model.Event{at("e1", "2024-06-03T23:30:00Z")}, utcMinus5)
	require.Len(t, groups, 1)
	assert.Equal(t, "2024-06-03", groups[0].Key)

	// Near local midnight the UTC date and local date differ.
	groups = GroupByLocalDate([]model.Event{at("e1", "2024-06-04T03:30:00Z")}, utcMinus5)
	assert.Equal(t, "2024-06-03", groups[0].Key)

	groups = GroupByLocalDate([]model.Event{at("e1", "2024-06-04T03:30:00Z")}, time.UTC)
	assert.Equal(t, "2024-06-04", groups[0].Key)
}

func TestGroupByLocalDateOrdering(t *testing.T) {
	groups := GroupByLocalDate([]model.Event{
		at("a", "2024-06-01T10:00:00Z"),
		at("b", "2024-06-03T18:00:00Z"),
		at("bad", "not-a-date"),
		at("c", "2024-06-03T09:00:00Z"),
		at("d", "2024-06-02T12:00:00Z"),
		at("e", "2024-06-03T12:00:00Z"),
	}, time.UTC)

	assert.Equal(t, []string{"2024-06-03", "2024-06-02", "2024-06-01", ""}, keys(groups))

	// Input order is kept inside a day; no intra-day re-sort.
	var day []string
	for _, e := range groups[0].Events {
		day = append(day, e.ID)
	}
	assert.Equal(t, []string{"b", "c", "e"}, day)
	assert.Equal(t, "bad", groups[3].Events[0].ID)
}

func TestGroupByLocalDateEmpty(t *testing.T) {
	groups := GroupByLocalDate(nil, time.UTC)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupSessionsByDate(t *testing.T) {
	groups := GroupSessionsByDate([]model.Session{
		{ID: "s1", StartedAt: "2024-06-03T23:30:00Z"},
		{ID: "s2", StartedAt: "2024-06-04T15:00:00Z"},
		{ID: "s3", StartedAt: "2024-06-03T14:00:00Z"},
		{ID: "s4"},
	}, utcMinus5)

	require.Len(t, groups, 3)
	assert.Equal(t, "2024-06-04", groups[0].Key)
	assert.Equal(t, "2024-06-03", groups[1].Key)
	assert.Len(t, groups[1].Sessions, 2)
	assert.Equal(t, "s1", groups[1].Sessions[0].ID)
	assert.Equal(t, "", groups[2].Key)
}

func TestFormatDateForDisplay(t *testing.T) {
	assert.Equal(t, "lunes, 3 de junio de 2024", FormatDateForDisplay("2024-06-03", locale.Spanish, utcMinus5))
	assert.Equal(t, "Monday, June 3, 2024", FormatDateForDisplay("2024-06-03", locale.English, time.UTC))
	assert.Equal(t, "junio 3", FormatDateForDisplay("junio 3", locale.Spanish, time.UTC))
}

func TestFormatDateForDisplayAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2024-03-10 is the spring-forward day in New York.
	assert.Equal(t, "domingo, 10 de marzo de 2024", FormatDateForDisplay("2024-03-10", locale.Spanish, ny))
}

func TestLabelDates(t *testing.T) {
	groups := []model.DateGroup{{Key: "2024-06-03"}, {Key: ""}}
	LabelDates(groups, locale.Spanish, time.UTC)
	assert.Equal(t, "lunes, 3 de junio de 2024", groups[0].Label)
	assert.Equal(t, locale.Spanish.InvalidDate, groups[1].Label)
}

func TestGroupByLocalDateZeroInstant(t *testing.T) {
	groups := GroupByLocalDate([]model.Event{at("e1", "0001-01-01T00:00:00Z")}, time.UTC)
	assert.Equal(t, []string{"0001-01-01"}, keys(groups))
}
