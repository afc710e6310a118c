package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"stay_pricing/internal/app"
	"stay_pricing/internal/domain"
)

type Handlers struct {
	Q *app.QuoteService
	A *app.AdmissionService
	// Health, when set, backs /healthz (e.g. a DB ping).
	Health func(ctx context.Context) error
}

type problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Requested *int   `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.healthz)
	s.mux.Get("/v1/hotels/{id}/quote", h.getQuote)
	s.mux.Get("/v1/hotels/{id}/availability", h.getAvailability)
	s.mux.Post("/v1/bookings", h.createBooking)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses.
func writeError(w http.ResponseWriter, err error) {
	var ue *domain.UnavailableError
	switch {
	case errors.As(err, &ue):
		writeProblemBody(w, problem{
			Type: "about:blank", Title: "Rooms Unavailable", Status: http.StatusConflict,
			Detail: err.Error(), Requested: &ue.Requested, Available: &ue.Available,
		})
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeProblem(w, http.StatusBadRequest, "Invalid Date Range", err.Error())
	case errors.Is(err, domain.ErrInvalidRequest):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "hotel not found")
	case errors.Is(err, domain.ErrDataIntegrity):
		writeProblem(w, http.StatusUnprocessableEntity, "Data Integrity Violation", err.Error())
	case errors.Is(err, domain.ErrPersistence):
		writeProblem(w, http.StatusInternalServerError, "Persistence Failure", err.Error())
	default:
		log.Error().Err(err).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	return `W/"` + hex.EncodeToString(sum[:]) + `"`, body
}

func (h *Handlers) healthz(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Unavailable", err.Error())
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handlers) getQuote(w http.ResponseWriter, r *http.Request) {
	p := params{r: r}
	q := app.QuoteQuery{
		HotelID:    p.hotelID(),
		CheckIn:    p.date("check_in"),
		CheckOut:   p.date("check_out"),
		Rooms:      p.integer("rooms", 1),
		Adults:     p.integer("adults", 1),
		Children:   p.integer("children", 0),
		ExtraMeals: p.integer("extra_meals", 0),
	}
	if p.err != nil {
		writeError(w, p.err)
		return
	}

	res, err := h.Q.Quote(r.Context(), q)
	if err != nil {
		writeError(w, err)
		return
	}

	etag, body := calcETagAndBody(toQuoteResponse(q.HotelID, q.CheckIn, q.CheckOut, res))
	// the quote only changes with reference data, so clients may revalidate
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write quote body")
	}
}

func (h *Handlers) getAvailability(w http.ResponseWriter, r *http.Request) {
	p := params{r: r}
	id := p.hotelID()
	in, out := p.date("check_in"), p.date("check_out")
	rooms := p.integer("rooms", 1)
	if p.err != nil {
		writeError(w, p.err)
		return
	}
	if rooms < 1 || rooms > domain.MaxRoomsPerBooking {
		writeError(w, fmt.Errorf("%w: rooms must be between 1 and %d", domain.ErrInvalidRequest, domain.MaxRoomsPerBooking))
		return
	}

	free, err := h.A.Availability(r.Context(), id, in, out)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availabilityResponse{
		HotelID:            id,
		CheckIn:            in.Format(domain.DateLayout),
		CheckOut:           out.Format(domain.DateLayout),
		RoomsRequested:     rooms,
		AvailableRoomCount: free,
		Available:          rooms <= free,
	})
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingRequestBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Request", "body must be a JSON booking request")
		return
	}
	req, err := body.toDomain()
	if err != nil {
		writeError(w, err)
		return
	}

	adm, err := h.A.AdmitBooking(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/v1/bookings/"+adm.Booking.Reference)
	writeJSON(w, http.StatusCreated, toBookingResponse(adm))
}

// params collects the first parse error of a request's path and query values.
type params struct {
	r   *http.Request
	err error
}

func (p *params) hotelID() int64 {
	id, err := strconv.ParseInt(chi.URLParam(p.r, "id"), 10, 64)
	if (err != nil || id <= 0) && p.err == nil {
		p.err = fmt.Errorf("%w: id must be a positive number", domain.ErrInvalidRequest)
	}
	return id
}

func (p *params) date(key string) time.Time {
	t, err := domain.ParseDate(p.r.URL.Query().Get(key))
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", key, err)
	}
	return t
}

func (p *params) integer(key string, def int) int {
	s := p.r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, key)
	}
	return n
}
