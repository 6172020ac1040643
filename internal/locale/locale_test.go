package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

func TestRelativeSpanish(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{0, "justo ahora"},
		{59 * time.Second, "justo ahora"},
		{-5 * time.Minute, "justo ahora"},
		{time.Minute, "hace 1 minuto"},
		{42 * time.Minute, "hace 42 minutos"},
		{time.Hour, "hace 1 hora"},
		{23*time.Hour + 59*time.Minute, "hace 23 horas"},
		{24 * time.Hour, "ayer"},
		{47 * time.Hour, "ayer"},
		{48 * time.Hour, "hace 2 días"},
		{6*24*time.Hour + time.Hour, "hace 6 días"},
		{7 * 24 * time.Hour, ""},
		{90 * 24 * time.Hour, ""},
	}
	for _, tt := range tests {
		got := Spanish.Relative(now, now.Add(-tt.ago))
		assert.Equal(t, tt.want, got, "ago=%v", tt.ago)
	}
}

func TestRelativeEnglish(t *testing.T) {
	assert.Equal(t, "just now", English.Relative(now, now))
	assert.Equal(t, "1 minute ago", English.Relative(now, now.Add(-time.Minute)))
	assert.Equal(t, "3 hours ago", English.Relative(now, now.Add(-3*time.Hour)))
	assert.Equal(t, "yesterday", English.Relative(now, now.Add(-30*time.Hour)))
	assert.Equal(t, "4 days ago", English.Relative(now, now.Add(-4*24*time.Hour)))
}

func TestLongDate(t *testing.T) {
	d := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "lunes, 3 de junio de 2024", Spanish.LongDate(d))
	assert.Equal(t, "Monday, June 3, 2024", English.LongDate(d))
}

func TestShortDateAndClock(t *testing.T) {
	d := time.Date(2024, 6, 3, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "03/06/2024", Spanish.ShortDate(d))
	assert.Equal(t, "06/03/2024", English.ShortDate(d))
	assert.Equal(t, "09:05", Spanish.Clock(d))
	assert.Equal(t, "21:30", Spanish.Clock(d.Add(12*time.Hour+25*time.Minute)))
}

func TestLookup(t *testing.T) {
	l, err := Lookup("es-CO")
	require.NoError(t, err)
	assert.Same(t, Spanish, l)

	l, err = Lookup("en-US")
	require.NoError(t, err)
	assert.Same(t, English, l)

	_, err = Lookup("not a tag!")
	assert.Error(t, err)
}

func TestFold(t *testing.T) {
	assert.Equal(t, "fiebre alta", Fold("FIEBRE Alta"))
	// Decomposed accent folds to the same string as the precomposed one.
	assert.Equal(t, Fold("N\u00e1useas"), Fold("Na\u0301useas"))
	assert.Equal(t, "", Fold(""))
}
