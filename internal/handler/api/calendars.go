package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"TradeCal/internal/calendar/changeset"
	"TradeCal/internal/domain/models"
	drepo "TradeCal/internal/domain/repository"
	imetrics "TradeCal/internal/service/metrics"
	"TradeCal/internal/service/notify"
	"TradeCal/internal/service/ratelimit"
	"TradeCal/internal/usecase"
	xhttp "TradeCal/pkg/http"
	xlogger "TradeCal/pkg/logger"
)

// CalendarHandler implements Echo-based HTTP handlers following Clean Architecture.
type CalendarHandler struct {
	logger    *xlogger.Logger
	calendars *usecase.CalendarService
	overrides *usecase.OverrideService
	audit     drepo.AuditLog
	hub       *notify.Hub
	limiter   *ratelimit.Limiter

	writeRate  float64
	writeBurst float64
}

func NewCalendarHandler(
	logger *xlogger.Logger,
	calendars *usecase.CalendarService,
	overrides *usecase.OverrideService,
	audit drepo.AuditLog,
	hub *notify.Hub,
	limiter *ratelimit.Limiter,
	writeRate, writeBurst float64,
) *CalendarHandler {
	imetrics.Register()
	return &CalendarHandler{
		logger:     logger,
		calendars:  calendars,
		overrides:  overrides,
		audit:      audit,
		hub:        hub,
		limiter:    limiter,
		writeRate:  writeRate,
		writeBurst: writeBurst,
	}
}

func (h *CalendarHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/ws", h.hub.Handle)

	g := e.Group("/api/calendars")
	g.GET("", h.List)
	g.GET("/:key", h.Get)
	g.GET("/:key/holidays", h.Holidays)
	g.GET("/:key/expiries", h.Expiries)
	g.GET("/:key/audit", h.Audit)

	g.GET("/:key/changeset", h.GetChangeSet)
	g.PUT("/:key/changeset", h.SetChangeSet)
	g.DELETE("/:key/changeset", h.Reset)
	g.POST("/:key/changeset/add", h.AddDay)
	g.POST("/:key/changeset/remove", h.RemoveDay)
	g.POST("/:key/changeset/reset-day", h.ResetDay)
}

func (h *CalendarHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *CalendarHandler) List(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.calendars.Keys())
}

func (h *CalendarHandler) Get(c echo.Context) error {
	start := time.Now()
	cal, err := h.calendars.GetCalendar(c.Request().Context(), c.Param("key"))
	if err != nil {
		return h.errorResponse(c, "get calendar", err)
	}
	imetrics.APILatency.WithLabelValues("get_calendar").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, cal)
}

func (h *CalendarHandler) Holidays(c echo.Context) error {
	cal, err := h.calendars.GetCalendar(c.Request().Context(), c.Param("key"))
	if err != nil {
		return h.errorResponse(c, "get holidays", err)
	}
	start, end, verr := h.rangeFromQuery(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, cal.Holidays(start, end))
}

func (h *CalendarHandler) Expiries(c echo.Context) error {
	cal, err := h.calendars.GetCalendar(c.Request().Context(), c.Param("key"))
	if err != nil {
		return h.errorResponse(c, "get expiries", err)
	}
	start, end, verr := h.rangeFromQuery(c)
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, cal.Expiries(start, end))
}

func (h *CalendarHandler) Audit(c echo.Context) error {
	limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 100)
	if limit < 1 || limit > 1000 {
		limit = 100
	}
	since, verr := timeFromQuery(c, "since")
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	until, verr := timeFromQuery(c, "until")
	if verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	recs, err := h.audit.Query(c.Request().Context(), c.Param("key"), since, until, limit)
	if err != nil {
		return h.errorResponse(c, "query audit", err)
	}
	return xhttp.SuccessResponse(c, recs)
}

func (h *CalendarHandler) GetChangeSet(c echo.Context) error {
	cs, err := h.overrides.GetChangeSet(c.Param("key"))
	if err != nil {
		return h.errorResponse(c, "get changeset", err)
	}
	return xhttp.SuccessResponse(c, cs.ToDict())
}

func (h *CalendarHandler) SetChangeSet(c echo.Context) error {
	if resp := h.throttle(c); resp != nil {
		return resp(c)
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return xhttp.BadRequestResponse(c, "unreadable request body")
	}
	cs, err := changeset.FromJSON(body)
	if err != nil {
		return h.errorResponse(c, "parse changeset", err)
	}
	if err := h.overrides.SetChangeSet(c.Request().Context(), c.Param("key"), cs); err != nil {
		return h.errorResponse(c, "set changeset", err)
	}
	return xhttp.SuccessResponse(c, cs.ToDict())
}

func (h *CalendarHandler) Reset(c echo.Context) error {
	if resp := h.throttle(c); resp != nil {
		return resp(c)
	}
	if err := h.overrides.Reset(c.Request().Context(), c.Param("key")); err != nil {
		return h.errorResponse(c, "reset changeset", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *CalendarHandler) AddDay(c echo.Context) error {
	if resp := h.throttle(c); resp != nil {
		return resp(c)
	}
	req := &models.AddDayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	spec, err := req.ToSpec()
	if err != nil {
		return h.errorResponse(c, "parse day", err)
	}
	if err := h.overrides.AddDay(c.Request().Context(), c.Param("key"), spec, req.Strict); err != nil {
		return h.errorResponse(c, "add day", err)
	}
	return xhttp.CreatedResponse(c, spec)
}

func (h *CalendarHandler) RemoveDay(c echo.Context) error {
	if resp := h.throttle(c); resp != nil {
		return resp(c)
	}
	req := &models.RemoveDayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return h.errorResponse(c, "parse date", err)
	}
	if err := h.overrides.RemoveDay(c.Request().Context(), c.Param("key"), date, req.Strict); err != nil {
		return h.errorResponse(c, "remove day", err)
	}
	return xhttp.SuccessResponse(c, date)
}

func (h *CalendarHandler) ResetDay(c echo.Context) error {
	if resp := h.throttle(c); resp != nil {
		return resp(c)
	}
	req := &models.ResetDayRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return h.errorResponse(c, "parse date", err)
	}

	var dayTypes []models.DayType
	if req.Type != "" {
		dt, err := models.ParseDayType(req.Type)
		if err != nil {
			return h.errorResponse(c, "parse day type", err)
		}
		dayTypes = append(dayTypes, dt)
	}
	if err := h.overrides.ResetDay(c.Request().Context(), c.Param("key"), date, dayTypes...); err != nil {
		return h.errorResponse(c, "reset day", err)
	}
	return xhttp.NoContentResponse(c)
}

// rangeFromQuery reads optional start/end bounds, defaulting to the
// service build window.
func (h *CalendarHandler) rangeFromQuery(c echo.Context) (models.Date, models.Date, interface{}) {
	start, end := h.calendars.Window()
	if q := c.QueryParam("start"); q != "" {
		d, err := models.ParseDate(q)
		if err != nil {
			return models.Date{}, models.Date{}, []xhttp.ValidationError{{
				Code: "ERR_DATE", Field: "start", Message: err.Error(),
			}}
		}
		start = d
	}
	if q := c.QueryParam("end"); q != "" {
		d, err := models.ParseDate(q)
		if err != nil {
			return models.Date{}, models.Date{}, []xhttp.ValidationError{{
				Code: "ERR_DATE", Field: "end", Message: err.Error(),
			}}
		}
		end = d
	}
	return start, end, nil
}

// timeFromQuery reads an optional RFC3339 or unix-seconds bound. The
// zero time means the bound was not given.
func timeFromQuery(c echo.Context, name string) (time.Time, interface{}) {
	q := c.QueryParam(name)
	if q == "" {
		return time.Time{}, nil
	}
	t, ok := xhttp.ParseTime(q)
	if !ok {
		return time.Time{}, []xhttp.ValidationError{{
			Code: "ERR_TIME", Field: name, Message: "expected RFC3339 or unix seconds",
		}}
	}
	return t, nil
}

// throttle applies the write rate limit per calendar key. It returns a
// non-nil responder when the request must be rejected.
func (h *CalendarHandler) throttle(c echo.Context) func(echo.Context) error {
	if h.limiter == nil {
		return nil
	}
	if h.limiter.Allow("write:"+c.Param("key"), h.writeBurst, h.writeRate) {
		return nil
	}
	return func(c echo.Context) error {
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limit exceeded")
	}
}

// errorResponse maps domain errors onto HTTP statuses.
func (h *CalendarHandler) errorResponse(c echo.Context, op string, err error) error {
	var nf *models.NotFoundError
	if errors.As(err, &nf) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(nf.Msg))
	}
	var se *models.StructuralError
	if errors.As(err, &se) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(se.Error()))
	}
	var ce *models.ConsistencyError
	if errors.As(err, &ce) {
		return xhttp.AppErrorResponse(c, xhttp.ConflictError(ce.Msg))
	}

	imetrics.APIErrors.WithLabelValues(op).Inc()
	h.logger.Error(op+" failed", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("internal error"))
}
