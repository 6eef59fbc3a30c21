package obs

import (
	"context"
	"log"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID tags ctx so timing logs can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func is called.
// Pass a pointer to the named error result so failures are logged with it.
// Work started by the simulation clock rather than a request logs req_id=-.
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()
	id := RequestID(ctx)
	if id == "" {
		id = "-"
	}

	return func(errp *error) {
		dur := time.Since(start).Round(time.Microsecond)

		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			log.Printf("req_id=%s op=%s dur=%s err=%v", id, op, dur, err)
			return
		}
		log.Printf("req_id=%s op=%s dur=%s", id, op, dur)
	}
}
