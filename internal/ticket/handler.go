package ticket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/k1networth/support-tickets/internal/shared/requestid"
)

const DefaultMaxBodyBytes = 1 << 20

// Handler is stateless apart from its dependencies and is safe for
// concurrent use. Zero-valued fields fall back to defaults; a nil Log uses
// slog.Default().
type Handler struct {
	Log          *slog.Logger
	Events       Publisher
	Metrics      *Metrics
	NewID        func() string
	Now          func() time.Time
	MaxBodyBytes int64
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = ErrBodyTooLarge
		} else {
			h.log().Warn("ticket_body_read_failed",
				slog.String("request_id", requestid.Get(r.Context())),
				slog.String("err", err.Error()),
			)
			err = ErrUnreadable
		}
		h.reject(r.Context(), err)
		WriteText(w, statusFor(err), err.Error())
		return
	}

	t, err := h.Create(r.Context(), body)
	if err != nil {
		WriteText(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, t)
}

// Create validates a raw request body and builds the confirmation. It returns
// ErrEmptyBody or ErrMissingFields on invalid input.
func (h *Handler) Create(ctx context.Context, body []byte) (Ticket, error) {
	h.log().Debug("ticket_create_start", slog.String("request_id", requestid.Get(ctx)))

	req, err := parseRequest(body)
	if err != nil {
		h.reject(ctx, err)
		return Ticket{}, err
	}

	t := Ticket{
		ID:        h.newID(),
		Name:      req.Name,
		Email:     req.Email,
		Issue:     req.Issue,
		Status:    StatusCreated,
		CreatedAt: h.now().UTC(),
	}

	if h.Events != nil {
		if err := h.Events.PublishCreated(ctx, t); err != nil {
			h.Metrics.publishFailed()
			h.log().Error("ticket_event_publish_failed",
				slog.String("request_id", requestid.Get(ctx)),
				slog.String("ticket_id", t.ID),
				slog.String("err", err.Error()),
			)
		}
	}

	h.Metrics.created()
	h.log().Info("ticket_created",
		slog.String("request_id", requestid.Get(ctx)),
		slog.String("ticket_id", t.ID),
	)
	return t, nil
}

// parseRequest matches field names exactly; "Name" or "NAME" does not fill
// name. Invalid UTF-8 is rejected rather than replaced, so echoed values stay
// byte-identical to the input.
func parseRequest(body []byte) (CreateTicketRequest, error) {
	if len(body) == 0 {
		return CreateTicketRequest{}, ErrEmptyBody
	}
	if !utf8.Valid(body) {
		return CreateTicketRequest{}, ErrMissingFields
	}

	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return CreateTicketRequest{}, ErrMissingFields
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return CreateTicketRequest{}, ErrMissingFields
	}

	var req CreateTicketRequest
	for key, dst := range map[string]*string{"name": &req.Name, "email": &req.Email, "issue": &req.Issue} {
		raw, ok := fields[key]
		if !ok {
			return CreateTicketRequest{}, ErrMissingFields
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return CreateTicketRequest{}, ErrMissingFields
		}
	}

	if err := req.Validate(); err != nil {
		return CreateTicketRequest{}, err
	}
	return req, nil
}

func (h *Handler) reject(ctx context.Context, err error) {
	why := reason(err)
	h.Metrics.rejected(why)
	h.log().Info("ticket_rejected",
		slog.String("request_id", requestid.Get(ctx)),
		slog.String("reason", why),
	)
}

func (h *Handler) log() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}

func (h *Handler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return NewTicketID()
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) maxBodyBytes() int64 {
	if h.MaxBodyBytes > 0 {
		return h.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
