package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/zapponejosh/campus-calendar-api/internal/calendar"
	"github.com/zapponejosh/campus-calendar-api/internal/config"
	"github.com/zapponejosh/campus-calendar-api/internal/database"
	"github.com/zapponejosh/campus-calendar-api/internal/holiday"
	"github.com/zapponejosh/campus-calendar-api/internal/ical"
	"github.com/zapponejosh/campus-calendar-api/internal/logger"
	"github.com/zapponejosh/campus-calendar-api/internal/recurrence"
)

// HeaderHolidayUpstream is set to "unavailable" when a holiday response
// was built without any remote or cached provider data.
const HeaderHolidayUpstream = "X-Holiday-Upstream"

const maxBodyBytes = 1 << 20

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db       *database.DB
	resolver *holiday.Resolver
	eidTable calendar.EidLookup
	cfg      *config.Config
	logger   *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

// NewHandlers creates a new Handlers instance. eidTable may be nil.
func NewHandlers(db *database.DB, resolver *holiday.Resolver, eidTable calendar.EidLookup, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		db:       db,
		resolver: resolver,
		eidTable: eidTable,
		cfg:      cfg,
		logger:   logger,
		validate: NewValidator(),
		now:      time.Now,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Health(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{"status": "healthy"})
}

// =============================================================================
// Holidays
// =============================================================================

func (h *Handlers) resolveHolidays(w http.ResponseWriter, r *http.Request) (*holiday.Result, bool) {
	q := r.URL.Query()
	if q.Get("year") == "" || q.Get("region") == "" {
		WriteBadRequest(w, "year and region query parameters are required")
		return nil, false
	}

	years, err := holiday.ParseYearRange(q.Get("year"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return nil, false
	}

	res, err := h.resolver.Resolve(r.Context(), years, q.Get("region"))
	if err != nil {
		if errors.Is(err, holiday.ErrInvalidRegion) || errors.Is(err, holiday.ErrInvalidYearRange) {
			WriteBadRequest(w, err.Error())
			return nil, false
		}
		logger.Error(r.Context(), "failed to resolve holidays", err)
		WriteInternalError(w, "Failed to resolve holidays")
		return nil, false
	}

	if res.UpstreamUnavailable() {
		w.Header().Set(HeaderHolidayUpstream, "unavailable")
		logger.Warn(r.Context(), "serving holidays without provider data",
			slog.String("region", res.Region),
			slog.String("years", years.String()),
		)
	}
	return res, true
}

// GetHolidays handles GET /api/v1/holidays?year=YYYY[-YYYY]&region=XX
//
// The body is a flat JSON array of holiday records; an empty array is a
// valid result.
func (h *Handlers) GetHolidays(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolveHolidays(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, res.Records())
}

// GetHolidaysICS handles GET /api/v1/holidays/calendar.ics
func (h *Handlers) GetHolidaysICS(w http.ResponseWriter, r *http.Request) {
	res, ok := h.resolveHolidays(w, r)
	if !ok {
		return
	}
	body := ical.Holidays(res.Region, res.Range, res.Entries, h.now())
	writeCalendar(w, fmt.Sprintf("holidays-%s-%s.ics", res.Region, res.Range), body)
}

func writeCalendar(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", ical.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

// =============================================================================
// Calendar computations
// =============================================================================

func pathYear(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "year")
	year, err := strconv.Atoi(raw)
	if err != nil || year < calendar.MinGregorianYear || year > 9999 {
		WriteBadRequest(w, fmt.Sprintf("Invalid year %q: use a Gregorian year between %d and 9999", raw, calendar.MinGregorianYear))
		return 0, false
	}
	return year, true
}

// EasterResponse lists Easter and its movable feasts for one year.
type EasterResponse struct {
	Year         int              `json:"year"`
	Easter       calendar.DateKey `json:"easter"`
	AshWednesday calendar.DateKey `json:"ash_wednesday"`
	GoodFriday   calendar.DateKey `json:"good_friday"`
	EasterMonday calendar.DateKey `json:"easter_monday"`
	Ascension    calendar.DateKey `json:"ascension"`
	Pentecost    calendar.DateKey `json:"pentecost"`
	WhitMonday   calendar.DateKey `json:"whit_monday"`
}

// GetEaster handles GET /api/v1/calendar/easter/{year}
func (h *Handlers) GetEaster(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, EasterResponse{
		Year:         year,
		Easter:       calendar.Easter(year),
		AshWednesday: calendar.AshWednesday(year),
		GoodFriday:   calendar.GoodFriday(year),
		EasterMonday: calendar.EasterOffset(year, calendar.OffsetEasterMonday),
		Ascension:    calendar.Ascension(year),
		Pentecost:    calendar.Pentecost(year),
		WhitMonday:   calendar.EasterOffset(year, calendar.OffsetWhitMonday),
	})
}

// EidResponse reports the Eid dates of one Gregorian year and whether
// they came from the curated table or the tabular computation.
type EidResponse struct {
	Year int `json:"year"`
	calendar.EidDates
	Source string `json:"source"`
}

// GetEid handles GET /api/v1/calendar/eid/{year}
func (h *Handlers) GetEid(w http.ResponseWriter, r *http.Request) {
	year, ok := pathYear(w, r)
	if !ok {
		return
	}

	source := "computed"
	if h.eidTable != nil {
		if _, found := h.eidTable.Lookup(year); found {
			source = "table"
		}
	}
	WriteSuccess(w, EidResponse{
		Year:     year,
		EidDates: calendar.ResolveEidDates(year, h.eidTable),
		Source:   source,
	})
}

// =============================================================================
// Recurrences and series
// =============================================================================

// decodeRecurrence reads, validates and converts a recurrence request.
// It writes the error response itself and reports false on failure.
func (h *Handlers) decodeRecurrence(w http.ResponseWriter, r *http.Request) (RecurrenceRequest, recurrence.Definition, bool) {
	var req RecurrenceRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return req, recurrence.Definition{}, false
	}
	if err := h.validate.Struct(req); err != nil {
		WriteValidationError(w, err)
		return req, recurrence.Definition{}, false
	}

	def, err := req.Definition(h.cfg.Location())
	if err != nil {
		if isValidationError(err) {
			WriteBadRequest(w, err.Error())
		} else {
			logger.Error(r.Context(), "failed to build recurrence", err)
			WriteInternalError(w, "Failed to build recurrence")
		}
		return req, recurrence.Definition{}, false
	}
	return req, def, true
}

// PreviewResponse is the expansion of a recurrence that is not stored.
type PreviewResponse struct {
	RRule       string                  `json:"rrule"`
	Count       int                     `json:"count"`
	Occurrences []recurrence.Occurrence `json:"occurrences"`
}

// PreviewRecurrence handles POST /api/v1/recurrences/preview
func (h *Handlers) PreviewRecurrence(w http.ResponseWriter, r *http.Request) {
	_, def, ok := h.decodeRecurrence(w, r)
	if !ok {
		return
	}
	occ := recurrence.Expand(def, "")
	WriteSuccess(w, PreviewResponse{RRule: def.RRule(), Count: len(occ), Occurrences: occ})
}

// CreateSeries handles POST /api/v1/series
func (h *Handlers) CreateSeries(w http.ResponseWriter, r *http.Request) {
	req, def, ok := h.decodeRecurrence(w, r)
	if !ok {
		return
	}
	if req.Title == "" {
		WriteBadRequest(w, "title is required")
		return
	}

	id := uuid.NewString()
	series := database.NewSeries(id, req.Title, def)
	occ := recurrence.Expand(def, id)

	if err := h.db.CreateSeries(r.Context(), series, occ); err != nil {
		logger.Error(r.Context(), "failed to create series", err)
		WriteInternalError(w, "Failed to create series")
		return
	}

	logger.Info(r.Context(), "series created",
		slog.String("series_id", id),
		slog.Int("occurrences", len(occ)),
	)
	WriteCreated(w, series)
}

// ListSeries handles GET /api/v1/series?limit=&offset=
func (h *Handlers) ListSeries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 50)
	if err != nil || limit < 1 || limit > 200 {
		WriteBadRequest(w, "limit must be between 1 and 200")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		WriteBadRequest(w, "offset must not be negative")
		return
	}

	list, err := h.db.ListSeries(r.Context(), limit, offset)
	if err != nil {
		logger.Error(r.Context(), "failed to list series", err)
		WriteInternalError(w, "Failed to list series")
		return
	}
	if list == nil {
		list = []database.Series{}
	}
	WriteSuccess(w, list)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// loadSeries fetches the series named by the {id} path parameter.
func (h *Handlers) loadSeries(w http.ResponseWriter, r *http.Request) (*database.Series, bool) {
	id := chi.URLParam(r, "id")
	series, err := h.db.GetSeries(r.Context(), id)
	if err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Series %q not found", id))
			return nil, false
		}
		logger.Error(r.Context(), "failed to get series", err, slog.String("series_id", id))
		WriteInternalError(w, "Failed to get series")
		return nil, false
	}
	return series, true
}

// GetSeries handles GET /api/v1/series/{id}
func (h *Handlers) GetSeries(w http.ResponseWriter, r *http.Request) {
	series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}
	WriteSuccess(w, series)
}

// GetSeriesOccurrences handles GET /api/v1/series/{id}/occurrences?from=&to=
func (h *Handlers) GetSeriesOccurrences(w http.ResponseWriter, r *http.Request) {
	series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}

	from, to := r.URL.Query().Get("from"), r.URL.Query().Get("to")
	for _, d := range []string{from, to} {
		if d == "" {
			continue
		}
		if _, err := calendar.ParseDateKey(d); err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	}

	occ, err := h.db.ListOccurrences(r.Context(), series.ID, from, to, series.StartAt.Location())
	if err != nil {
		logger.Error(r.Context(), "failed to list occurrences", err, slog.String("series_id", series.ID))
		WriteInternalError(w, "Failed to list occurrences")
		return
	}
	WriteSuccess(w, occ)
}

// GetSeriesICS handles GET /api/v1/series/{id}/calendar.ics
func (h *Handlers) GetSeriesICS(w http.ResponseWriter, r *http.Request) {
	series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}
	occ, err := h.db.ListOccurrences(r.Context(), series.ID, "", "", nil)
	if err != nil {
		logger.Error(r.Context(), "failed to list occurrences", err, slog.String("series_id", series.ID))
		WriteInternalError(w, "Failed to list occurrences")
		return
	}
	writeCalendar(w, "series-"+series.ID+".ics", ical.Occurrences(series.ID, series.Title, occ, h.now()))
}

// DeleteSeries handles DELETE /api/v1/series/{id}
func (h *Handlers) DeleteSeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.db.DeleteSeries(r.Context(), id); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Series %q not found", id))
			return
		}
		logger.Error(r.Context(), "failed to delete series", err, slog.String("series_id", id))
		WriteInternalError(w, "Failed to delete series")
		return
	}
	WriteSuccess(w, map[string]string{"deleted": id})
}

// RegenerateSeries handles POST /api/v1/series/{id}/regenerate
//
// The stored definition is expanded again and replaces the materialized
// occurrences, picking up time zone rule changes since creation.
func (h *Handlers) RegenerateSeries(w http.ResponseWriter, r *http.Request) {
	series, ok := h.loadSeries(w, r)
	if !ok {
		return
	}

	def, err := series.Definition()
	if err == nil {
		err = def.Validate()
	}
	if err != nil {
		logger.Error(r.Context(), "stored series definition is unusable", err, slog.String("series_id", series.ID))
		WriteInternalError(w, "Stored series definition is invalid")
		return
	}

	occ := recurrence.Expand(def, series.ID)
	if err := h.db.ReplaceOccurrences(r.Context(), series.ID, occ); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, fmt.Sprintf("Series %q not found", series.ID))
			return
		}
		logger.Error(r.Context(), "failed to regenerate occurrences", err, slog.String("series_id", series.ID))
		WriteInternalError(w, "Failed to regenerate occurrences")
		return
	}

	series.Occurrences = len(occ)
	logger.Info(r.Context(), "series regenerated",
		slog.String("series_id", series.ID),
		slog.Int("occurrences", len(occ)),
	)
	WriteSuccess(w, series)
}
