// Package locale renders dates, clock times and relative times for the
// languages the timeline supports. Spanish is the default.
package locale

import (
	"fmt"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys for relative-time phrases.
const (
	keyJustNow   = "just now"
	keyMinutes   = "%d minutes ago"
	keyHours     = "%d hours ago"
	keyYesterday = "yesterday"
	keyDays      = "%d days ago"
)

// Locale renders display strings for one language.
type Locale struct {
	Tag language.Tag

	// InvalidDate and InvalidTime replace formatted fields when a
	// timestamp cannot be parsed.
	InvalidDate string
	InvalidTime string

	shortDate string
	months    [12]string
	weekdays  [7]string
	longDate  func(l *Locale, t time.Time) string
	printer   *message.Printer
}

var (
	// Spanish is the default locale.
	Spanish = &Locale{
		Tag:         language.Spanish,
		InvalidDate: "Fecha inválida",
		InvalidTime: "Hora inválida",
		shortDate:   "02/01/2006",
		months: [12]string{
			"enero", "febrero", "marzo", "abril", "mayo", "junio",
			"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
		},
		weekdays: [7]string{
			"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado",
		},
		longDate: func(l *Locale, t time.Time) string {
			return fmt.Sprintf("%s, %d de %s de %d",
				l.weekdays[t.Weekday()], t.Day(), l.months[t.Month()-1], t.Year())
		},
	}

	// English is available for non-Spanish deployments.
	English = &Locale{
		Tag:         language.English,
		InvalidDate: "Invalid date",
		InvalidTime: "Invalid time",
		shortDate:   "01/02/2006",
		months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		weekdays: [7]string{
			"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
		},
		longDate: func(l *Locale, t time.Time) string {
			return fmt.Sprintf("%s, %s %d, %d",
				l.weekdays[t.Weekday()], l.months[t.Month()-1], t.Day(), t.Year())
		},
	}
)

var supported = []*Locale{Spanish, English}

var matcher = language.NewMatcher([]language.Tag{language.Spanish, language.English})

func init() {
	cat := newCatalog()
	for _, l := range supported {
		l.printer = message.NewPrinter(l.Tag, message.Catalog(cat))
	}
}

func newCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.Spanish))
	set := func(tag language.Tag, key string, msg ...catalog.Message) {
		if err := b.Set(tag, key, msg...); err != nil {
			panic(fmt.Sprintf("locale: catalog %s %q: %v", tag, key, err))
		}
	}

	set(language.Spanish, keyJustNow, catalog.String("justo ahora"))
	set(language.Spanish, keyMinutes, plural.Selectf(1, "%d",
		"=1", "hace %d minuto",
		plural.Other, "hace %d minutos"))
	set(language.Spanish, keyHours, plural.Selectf(1, "%d",
		"=1", "hace %d hora",
		plural.Other, "hace %d horas"))
	set(language.Spanish, keyYesterday, catalog.String("ayer"))
	set(language.Spanish, keyDays, catalog.String("hace %d días"))

	set(language.English, keyJustNow, catalog.String("just now"))
	set(language.English, keyMinutes, plural.Selectf(1, "%d",
		"=1", "%d minute ago",
		plural.Other, "%d minutes ago"))
	set(language.English, keyHours, plural.Selectf(1, "%d",
		"=1", "%d hour ago",
		plural.Other, "%d hours ago"))
	set(language.English, keyYesterday, catalog.String("yesterday"))
	set(language.English, keyDays, catalog.String("%d days ago"))
	return b
}

// Lookup resolves a BCP 47 tag ("es", "es-CO", "en-US") to a supported
// locale.
func Lookup(name string) (*Locale, error) {
	tag, err := language.Parse(name)
	if err != nil {
		return nil, fmt.Errorf("locale: %w", err)
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return nil, fmt.Errorf("locale: unsupported language %q", name)
	}
	return supported[idx], nil
}

// ShortDate renders t as a numeric day ("03/06/2024" in Spanish).
func (l *Locale) ShortDate(t time.Time) string {
	return t.Format(l.shortDate)
}

// Clock renders t as a 24-hour wall-clock time.
func (l *Locale) Clock(t time.Time) string {
	return t.Format("15:04")
}

// LongDate renders t with weekday and month names
// ("lunes, 3 de junio de 2024").
func (l *Locale) LongDate(t time.Time) string {
	return l.longDate(l, t)
}

// Relative renders how long before now t happened. It returns "" for
// anything a week or older; callers fall back to the absolute date.
func (l *Locale) Relative(now, t time.Time) string {
	diff := now.Sub(t)
	switch {
	case diff < time.Minute:
		return l.printer.Sprintf(keyJustNow)
	case diff < time.Hour:
		return l.printer.Sprintf(keyMinutes, int(diff/time.Minute))
	case diff < 24*time.Hour:
		return l.printer.Sprintf(keyHours, int(diff/time.Hour))
	}

	switch days := int(diff / (24 * time.Hour)); {
	case days == 1:
		return l.printer.Sprintf(keyYesterday)
	case days < 7:
		return l.printer.Sprintf(keyDays, days)
	}
	return ""
}
