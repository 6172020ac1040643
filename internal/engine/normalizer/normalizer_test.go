package normalizer

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crimson-sun/cronica/internal/locale"
	"github.com/crimson-sun/cronica/internal/model"
)

var (
	now    = time.Date(2024, 6, 10, 15, 0, 0, 0, time.UTC)
	bogota = time.FixedZone("UTC-5", -5*3600)
)

func newTestNormalizer(buf *bytes.Buffer, opts ...Option) *Normalizer {
	logger := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	base := []Option{
		WithClock(func() time.Time { return now }),
		WithLocation(bogota),
		WithLogger(logger),
	}
	return New(append(base, opts...)...)
}

func TestNormalizeEmpty(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf).Normalize(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestNormalizeAssignsPositionalIDs(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf).Normalize([]model.RawEvent{
		{EventType: model.TypeSymptom, Timestamp: "2024-06-10T14:00:00Z"},
		{ID: "keep-me", EventType: model.TypeDiagnosis, Timestamp: "2024-06-10T14:00:00Z"},
		{EventType: model.TypeRecording, Timestamp: "2024-06-10T14:00:00Z"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, "event-0", out[0].ID)
	assert.Equal(t, "keep-me", out[1].ID)
	assert.Equal(t, "event-2", out[2].ID)
}

func TestNormalizeDisambiguatesCollidingIDs(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf).Normalize([]model.RawEvent{
		{ID: "event-1", EventType: model.TypeSymptom},
		{EventType: model.TypeSymptom},
		{ID: "dup", EventType: model.TypeSymptom},
		{ID: "dup", EventType: model.TypeSymptom},
	})
	ids := map[string]bool{}
	for _, e := range out {
		assert.NotEmpty(t, e.ID)
		assert.False(t, ids[e.ID], "duplicate id %s", e.ID)
		ids[e.ID] = true
	}
	assert.Equal(t, "event-1-1", out[1].ID)
	assert.Equal(t, "dup-3", out[3].ID)
}

func TestNormalizeContentIDsAreDeterministic(t *testing.T) {
	var buf bytes.Buffer
	n := newTestNormalizer(&buf, WithIDStrategy(ContentIDs))
	raws := []model.RawEvent{
		{EventType: model.TypeSymptom, Timestamp: "2024-06-10T14:00:00Z"},
		{EventType: model.TypeVitalSign, Timestamp: "2024-06-10T14:05:00Z"},
	}

	first := n.Normalize(raws)
	// Reordering the input does not change content ids.
	second := n.Normalize([]model.RawEvent{raws[1], raws[0]})

	assert.Equal(t, first[0].ID, second[1].ID)
	assert.Equal(t, first[1].ID, second[0].ID)
	_, err := uuid.Parse(first[0].ID)
	assert.NoError(t, err)
}

func TestNormalizeFormatsInViewerLocation(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf).Normalize([]model.RawEvent{
		{EventType: model.TypeSymptom, Description: "fiebre", Timestamp: "2024-06-04T03:30:00Z"},
	})
	require.Len(t, out, 1)
	e := out[0]
	// 03:30Z is 22:30 of the previous day in UTC-5.
	assert.Equal(t, "03/06/2024", e.FormattedDate)
	assert.Equal(t, "22:30", e.FormattedTime)
	assert.Equal(t, "hace 6 días", e.RelativeTime)
	assert.True(t, e.HasTime())
	assert.Equal(t, "clinical_findings", e.Category)
	assert.Equal(t, "thermometer", e.Icon)
	assert.Equal(t, "Síntoma detectado", e.TranslatedDescription)
}

func TestNormalizeRelativeTime(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf).Normalize([]model.RawEvent{
		{EventType: model.TypeSymptom, Timestamp: now.Add(-30 * time.Second).Format(time.RFC3339)},
		{EventType: model.TypeSymptom, Timestamp: now.Add(-5 * time.Minute).Format(time.RFC3339)},
		{EventType: model.TypeSymptom, Timestamp: now.Add(-2 * time.Hour).Format(time.RFC3339)},
		{EventType: model.TypeSymptom, Timestamp: now.Add(-26 * time.Hour).Format(time.RFC3339)},
		{EventType: model.TypeSymptom, Timestamp: now.Add(-30 * 24 * time.Hour).Format(time.RFC3339)},
	})
	got := make([]string, len(out))
	for i, e := range out {
		got[i] = e.RelativeTime
	}
	assert.Equal(t, []string{"justo ahora", "hace 5 minutos", "hace 2 horas", "ayer", ""}, got)
}

func TestNormalizeInvalidTimestampDegrades(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf).Normalize([]model.RawEvent{
		{EventType: model.TypeSymptom, Timestamp: "not-a-date"},
		{EventType: model.TypeDiagnosis, Timestamp: "2024-06-10T14:00:00Z"},
	})
	require.Len(t, out, 2)

	assert.Equal(t, locale.Spanish.InvalidDate, out[0].FormattedDate)
	assert.Equal(t, locale.Spanish.InvalidTime, out[0].FormattedTime)
	assert.Empty(t, out[0].RelativeTime)
	assert.False(t, out[0].HasTime())

	// The rest of the batch is unaffected.
	assert.True(t, out[1].HasTime())
	assert.Equal(t, "10/06/2024", out[1].FormattedDate)

	logs := buf.String()
	assert.True(t, strings.Contains(logs, "invalid event timestamp"), "expected a warning, got %q", logs)
	assert.Contains(t, logs, "level=WARN")
	assert.Contains(t, logs, "not-a-date")
}

func TestNormalizeZeroInstantIsStillParsed(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf, WithLocation(time.UTC)).Normalize([]model.RawEvent{
		{EventType: model.TypeSymptom, Timestamp: "0001-01-01T00:00:00Z"},
	})
	require.Len(t, out, 1)
	assert.True(t, out[0].HasTime())
	assert.Equal(t, "01/01/0001", out[0].FormattedDate)
	assert.NotContains(t, buf.String(), "invalid event timestamp")
}

func TestWithLocationNilKeepsDefault(t *testing.T) {
	n := New(WithLocation(nil))
	assert.Equal(t, time.Local, n.Location())
}

func TestNormalizeEnglishLocale(t *testing.T) {
	var buf bytes.Buffer
	out := newTestNormalizer(&buf, WithLocale(locale.English)).Normalize([]model.RawEvent{
		{EventType: "allergy", Description: "penicillin", Timestamp: "bad"},
	})
	assert.Equal(t, "Invalid date", out[0].FormattedDate)
	assert.Equal(t, "other", out[0].Category)
	assert.Equal(t, "circle", out[0].Icon)
	assert.Equal(t, "penicillin", out[0].TranslatedDescription)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	var buf bytes.Buffer
	raws := []model.RawEvent{{EventType: model.TypeSymptom, Metadata: map[string]any{"k": "v"}}}
	out := newTestNormalizer(&buf).Normalize(raws)
	assert.Empty(t, raws[0].ID)
	assert.Equal(t, "event-0", out[0].ID)
}

func TestParseIDStrategy(t *testing.T) {
	s, err := ParseIDStrategy("content")
	require.NoError(t, err)
	assert.Equal(t, ContentIDs, s)

	s, err = ParseIDStrategy("")
	require.NoError(t, err)
	assert.Equal(t, PositionalIDs, s)

	_, err = ParseIDStrategy("random")
	assert.Error(t, err)
}
