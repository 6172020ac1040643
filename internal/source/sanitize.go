package source

import (
	"errors"
	"log/slog"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/crimson-sun/cronica/internal/model"
)

var validate = validator.New()

// Sanitize checks every event before it reaches the engine. Events without
// an event_type are dropped; confidences outside [0,1] are clamped and NaN becomes 0. Each
// correction is logged. The input session is not modified.
func Sanitize(s model.Session, logger *slog.Logger) model.Session {
	if logger == nil {
		logger = slog.Default()
	}
	out := s
	out.Events = make([]model.RawEvent, 0, len(s.Events))

	for i, ev := range s.Events {
		err := validate.Struct(ev)
		if err == nil {
			out.Events = append(out.Events, ev)
			continue
		}

		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			logger.Warn("event validation failed", "session", s.ID, "index", i, "error", err)
			continue
		}

		drop := false
		for _, fe := range verrs {
			switch fe.Field() {
			case "EventType":
				drop = true
			case "Confidence":
				clamped := 0.0
				if !math.IsNaN(ev.Confidence) {
					clamped = min(max(ev.Confidence, 0), 1)
				}
				logger.Warn("confidence out of range, clamped",
					"session", s.ID, "index", i, "id", ev.ID, "confidence", ev.Confidence, "clamped", clamped)
				ev.Confidence = clamped
			}
		}
		if drop {
			logger.Warn("event without event_type dropped", "session", s.ID, "index", i, "id", ev.ID)
			continue
		}
		out.Events = append(out.Events, ev)
	}
	return out
}
