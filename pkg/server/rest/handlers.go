package rest

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"lintang/campusnav/pkg/datastructure"
	"lintang/campusnav/pkg/recommendation"
	"lintang/campusnav/pkg/server"
	"lintang/campusnav/pkg/session"
	"lintang/campusnav/pkg/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

type NavigationService interface {
	Locations(ctx context.Context) []datastructure.Location
	Location(ctx context.Context, id string) (datastructure.Location, datastructure.Occupancy, error)
	NearestLocation(ctx context.Context, x, y float64) (datastructure.Location, float64, error)
	DataQuality(ctx context.Context) datastructure.DataQualityReport
	ShortestPath(ctx context.Context, fromID, toID string,
		pref datastructure.RoutePreference) (datastructure.Route, []datastructure.Location, bool, error)
	DistanceMatrix(ctx context.Context, ids []string) (map[string]map[string]datastructure.Route, error)

	CreateSession(ctx context.Context) (string, session.State)
	SessionState(ctx context.Context, sessionID string) (session.State, error)
	SelectLocation(ctx context.Context, sessionID, locationID string) (session.State, error)
	ClearSession(ctx context.Context, sessionID string) (session.State, error)
	Recommendation(ctx context.Context, sessionID string, tod recommendation.TimeOfDay, selectedID string) (string, error)

	Occupancy(ctx context.Context) (map[string]datastructure.Occupancy, []datastructure.OccupancyUpdate)
	RouteHistory(ctx context.Context, limit int) ([]datastructure.RouteRecord, error)
}

type NavigationHandler struct {
	svc          NavigationService
	promeMetrics *metrics
	now          func() time.Time
}

func NavigatorRouter(r *chi.Mux, svc NavigationService, m *metrics) {
	handler := &NavigationHandler{svc, m, time.Now}

	r.Group(func(r chi.Router) {
		r.Route("/api/campus", func(r chi.Router) {
			r.Get("/locations", handler.locations)
			r.Get("/locations/nearest", handler.nearestLocation)
			r.Get("/locations/{id}", handler.location)
			r.Get("/data-quality", handler.dataQuality)
			r.Post("/shortest-path", handler.shortestPath)
			r.Post("/distance-matrix", handler.distanceMatrix)

			r.Post("/sessions", handler.createSession)
			r.Route("/sessions/{sessionID}", func(r chi.Router) {
				r.Get("/", handler.sessionState)
				r.Delete("/", handler.clearSession)
				r.Post("/select", handler.selectLocation)
				r.Get("/recommendation", handler.recommendation)
			})

			r.Get("/occupancy", handler.occupancy)
			r.Get("/history", handler.routeHistory)
		})
	})
}

// validateRequest runs the struct validation and renders the translated
// errors. It reports false when a response has already been written.
func validateRequest(w http.ResponseWriter, r *http.Request, data interface{}) bool {
	validate := validator.New()
	if err := validate.Struct(data); err != nil {
		english := en.New()
		uni := ut.New(english, english)
		trans, _ := uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
		vv := translateError(err, trans)
		render.Render(w, r, ErrValidation(err, vv))
		return false
	}
	return true
}

// LocationsResponse model info
//
//	@Description	all campus locations in authoring order
type LocationsResponse struct {
	Locations []datastructure.Location `json:"locations"`
}

// locations
//
//	@Summary		list campus locations.
//	@Tags			campus
//	@Produce		application/json
//	@Router			/campus/locations [get]
//	@Success		200	{object}	LocationsResponse
func (h *NavigationHandler) locations(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusOK)
	render.JSON(w, r, LocationsResponse{Locations: h.svc.Locations(r.Context())})
}

// LocationResponse model info
//
//	@Description	one location with its current crowd level
type LocationResponse struct {
	Location  datastructure.Location  `json:"location"`
	Occupancy datastructure.Occupancy `json:"occupancy"`
}

// location
//
//	@Summary		get a campus location and its occupancy.
//	@Tags			campus
//	@Param			id	path	string	true	"location id"
//	@Produce		application/json
//	@Router			/campus/locations/{id} [get]
//	@Success		200	{object}	LocationResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) location(w http.ResponseWriter, r *http.Request) {
	loc, occ, err := h.svc.Location(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, LocationResponse{Location: loc, Occupancy: occ})
}

// NearestLocationRequest model info
//
//	@Description	a point on the normalized campus map
type NearestLocationRequest struct {
	X float64 `validate:"gte=0,lte=100"`
	Y float64 `validate:"gte=0,lte=100"`
}

// NearestLocationResponse model info
//
//	@Description	the location closest to the requested point
type NearestLocationResponse struct {
	Location datastructure.Location `json:"location"`
	Distance float64                `json:"distance"`
}

// nearestLocation
//
//	@Summary		nearest campus location to a map point.
//	@Tags			campus
//	@Param			x	query	number	true	"x in [0,100]"
//	@Param			y	query	number	true	"y in [0,100]"
//	@Produce		application/json
//	@Router			/campus/locations/nearest [get]
//	@Success		200	{object}	NearestLocationResponse
//	@Failure		400	{object}	ErrResponse
func (h *NavigationHandler) nearestLocation(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.ParseFloat(r.URL.Query().Get("x"), 64)
	y, errY := strconv.ParseFloat(r.URL.Query().Get("y"), 64)
	if err := errors.Join(errX, errY); err != nil {
		render.Render(w, r, ErrInvalidRequest(errors.New("x and y must be numbers")))
		return
	}
	data := NearestLocationRequest{X: x, Y: y}
	if !validateRequest(w, r, data) {
		return
	}

	loc, dist, err := h.svc.NearestLocation(r.Context(), data.X, data.Y)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NearestLocationResponse{Location: loc, Distance: util.RoundFloat(dist, 2)})
}

// DataQualityResponse model info
//
//	@Description	hand-authoring issues in the location dataset
type DataQualityResponse struct {
	Clean bool `json:"clean"`
	datastructure.DataQualityReport
}

// dataQuality
//
//	@Summary		audit of the location dataset.
//	@Tags			campus
//	@Produce		application/json
//	@Router			/campus/data-quality [get]
//	@Success		200	{object}	DataQualityResponse
func (h *NavigationHandler) dataQuality(w http.ResponseWriter, r *http.Request) {
	report := h.svc.DataQuality(r.Context())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, DataQualityResponse{Clean: report.Clean(), DataQualityReport: report})
}

// ShortestPathRequest model info
//
//	@Description	request body for a shortest path query between two campus locations
type ShortestPathRequest struct {
	From       string `json:"from" validate:"required"`
	To         string `json:"to" validate:"required"`
	Preference string `json:"preference" validate:"omitempty,oneof=fastest least-crowded"`
}

func (s *ShortestPathRequest) Bind(r *http.Request) error {
	s.From = strings.TrimSpace(s.From)
	s.To = strings.TrimSpace(s.To)
	if s.Preference == "" {
		s.Preference = string(datastructure.PreferenceFastest)
	}
	return nil
}

// ShortestPathResponse	model info
//
//	@Description	response body for a shortest path query between two campus locations
type ShortestPathResponse struct {
	Path       string                   `json:"path"`
	Stops      []string                 `json:"stops"`
	Locations  []datastructure.Location `json:"locations"`
	Dist       float64                  `json:"distance"`
	Found      bool                     `json:"found"`
	Polyline   string                   `json:"polyline,omitempty"`
	Preference string                   `json:"preference"`
}

func NewShortestPathResponse(route datastructure.Route, locs []datastructure.Location, found bool,
	pref datastructure.RoutePreference) *ShortestPathResponse {
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.Name
	}
	stops := route.Stops
	if stops == nil {
		stops = []string{}
	}
	resp := &ShortestPathResponse{
		Path:       strings.Join(names, " → "),
		Stops:      stops,
		Locations:  locs,
		Dist:       util.RoundFloat(route.Distance, 2),
		Found:      found,
		Preference: string(pref),
	}
	if found {
		resp.Polyline = datastructure.RenderPath(locs)
	}
	return resp
}

// shortestPath
//
//	@Summary		shortest path between two campus locations.
//	@Description	shortest path between two campus locations with dijkstra. An unreachable destination is found=false.
//	@Tags			campus
//	@Param			body	body	ShortestPathRequest	true	"origin, destination and route preference"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/campus/shortest-path [post]
//	@Success		200	{object}	ShortestPathResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) shortestPath(w http.ResponseWriter, r *http.Request) {
	data := &ShortestPathRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	pref := datastructure.RoutePreference(data.Preference)
	route, locs, found, err := h.svc.ShortestPath(r.Context(), data.From, data.To, pref)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	h.promeMetrics.SPQueryCount.WithLabelValues(data.Preference, strconv.FormatBool(found)).Inc()

	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewShortestPathResponse(route, locs, found, pref))
}

// DistanceMatrixRequest model info
//
//	@Description	request body for pairwise shortest paths between campus locations
type DistanceMatrixRequest struct {
	Locations []string `json:"locations" validate:"required,min=2,max=50,dive,required"`
}

func (s *DistanceMatrixRequest) Bind(r *http.Request) error {
	if len(s.Locations) == 0 {
		return errors.New("invalid request")
	}
	return nil
}

type DistanceMatrixEntry struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	Stops    []string `json:"stops"`
	Distance float64  `json:"distance"`
}

// DistanceMatrixResponse model info
//
//	@Description	pairwise routes; unreachable pairs are omitted
type DistanceMatrixResponse struct {
	Routes []DistanceMatrixEntry `json:"routes"`
}

func NewDistanceMatrixResponse(matrix map[string]map[string]datastructure.Route) *DistanceMatrixResponse {
	routes := []DistanceMatrixEntry{}
	for from, row := range matrix {
		for to, route := range row {
			routes = append(routes, DistanceMatrixEntry{
				From:     from,
				To:       to,
				Stops:    route.Stops,
				Distance: util.RoundFloat(route.Distance, 2),
			})
		}
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].From != routes[j].From {
			return routes[i].From < routes[j].From
		}
		return routes[i].To < routes[j].To
	})
	return &DistanceMatrixResponse{Routes: routes}
}

// distanceMatrix
//
//	@Summary		pairwise shortest paths between campus locations.
//	@Tags			campus
//	@Param			body	body	DistanceMatrixRequest	true	"location ids"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/campus/distance-matrix [post]
//	@Success		200	{object}	DistanceMatrixResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) distanceMatrix(w http.ResponseWriter, r *http.Request) {
	data := &DistanceMatrixRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	matrix, err := h.svc.DistanceMatrix(r.Context(), data.Locations)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, NewDistanceMatrixResponse(matrix))
}

// SessionResponse model info
//
//	@Description	route session state
type SessionResponse struct {
	ID    string        `json:"id"`
	State session.State `json:"state"`
}

// createSession
//
//	@Summary		start a route selection session.
//	@Tags			sessions
//	@Produce		application/json
//	@Router			/campus/sessions [post]
//	@Success		201	{object}	SessionResponse
func (h *NavigationHandler) createSession(w http.ResponseWriter, r *http.Request) {
	id, st := h.svc.CreateSession(r.Context())
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, SessionResponse{ID: id, State: st})
}

// sessionState
//
//	@Summary		current route session state.
//	@Tags			sessions
//	@Param			sessionID	path	string	true	"session id"
//	@Produce		application/json
//	@Router			/campus/sessions/{sessionID} [get]
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) sessionState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	st, err := h.svc.SessionState(r.Context(), id)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SessionResponse{ID: id, State: st})
}

// SelectLocationRequest model info
//
//	@Description	a click on a campus location
type SelectLocationRequest struct {
	LocationID string `json:"location_id" validate:"required"`
}

func (s *SelectLocationRequest) Bind(r *http.Request) error {
	s.LocationID = strings.TrimSpace(s.LocationID)
	return nil
}

// selectLocation
//
//	@Summary		select a location as origin or destination.
//	@Description	first click sets the origin, second click a different location completes the route, any further click starts over.
//	@Tags			sessions
//	@Param			sessionID	path	string					true	"session id"
//	@Param			body		body	SelectLocationRequest	true	"clicked location"
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/campus/sessions/{sessionID}/select [post]
//	@Success		200	{object}	SessionResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) selectLocation(w http.ResponseWriter, r *http.Request) {
	data := &SelectLocationRequest{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if !validateRequest(w, r, *data) {
		return
	}

	id := chi.URLParam(r, "sessionID")
	st, err := h.svc.SelectLocation(r.Context(), id, data.LocationID)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SessionResponse{ID: id, State: st})
}

// clearSession
//
//	@Summary		clear origin, destination and path of a session.
//	@Tags			sessions
//	@Param			sessionID	path	string	true	"session id"
//	@Produce		application/json
//	@Router			/campus/sessions/{sessionID} [delete]
//	@Success		200	{object}	SessionResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) clearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	st, err := h.svc.ClearSession(r.Context(), id)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, SessionResponse{ID: id, State: st})
}

// RecommendationResponse model info
//
//	@Description	advisory line for the current session
type RecommendationResponse struct {
	TimeOfDay      recommendation.TimeOfDay `json:"time_of_day"`
	Recommendation string                   `json:"recommendation"`
}

// recommendation
//
//	@Summary		recommendation for the session route.
//	@Tags			sessions
//	@Param			sessionID	path	string	true	"session id"
//	@Param			time_of_day	query	string	false	"morning, afternoon or evening; defaults to the server clock"
//	@Param			selected	query	string	false	"currently selected location id"
//	@Produce		application/json
//	@Router			/campus/sessions/{sessionID}/recommendation [get]
//	@Success		200	{object}	RecommendationResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		404	{object}	ErrResponse
func (h *NavigationHandler) recommendation(w http.ResponseWriter, r *http.Request) {
	tod := recommendation.TimeOfDayAt(h.now())
	if raw := r.URL.Query().Get("time_of_day"); raw != "" {
		parsed, err := recommendation.ParseTimeOfDay(raw)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		tod = parsed
	}

	msg, err := h.svc.Recommendation(r.Context(), chi.URLParam(r, "sessionID"), tod, r.URL.Query().Get("selected"))
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RecommendationResponse{TimeOfDay: tod, Recommendation: msg})
}

// OccupancyResponse model info
//
//	@Description	crowd levels per location and the most recent changes
type OccupancyResponse struct {
	Locations map[string]datastructure.Occupancy `json:"locations"`
	Updates   []datastructure.OccupancyUpdate    `json:"updates"`
}

// occupancy
//
//	@Summary		current crowd levels.
//	@Tags			campus
//	@Produce		application/json
//	@Router			/campus/occupancy [get]
//	@Success		200	{object}	OccupancyResponse
func (h *NavigationHandler) occupancy(w http.ResponseWriter, r *http.Request) {
	snap, updates := h.svc.Occupancy(r.Context())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, OccupancyResponse{Locations: snap, Updates: updates})
}

// RouteHistoryRequest model info
//
//	@Description	how many history entries to return
type RouteHistoryRequest struct {
	Limit int `validate:"gte=1,lte=100"`
}

// RouteHistoryResponse model info
//
//	@Description	most recent completed routes, newest first
type RouteHistoryResponse struct {
	Routes []datastructure.RouteRecord `json:"routes"`
}

// routeHistory
//
//	@Summary		recently completed routes.
//	@Tags			campus
//	@Param			limit	query	int	false	"max entries, default 10"
//	@Produce		application/json
//	@Router			/campus/history [get]
//	@Success		200	{object}	RouteHistoryResponse
//	@Failure		400	{object}	ErrResponse
//	@Failure		500	{object}	ErrResponse
func (h *NavigationHandler) routeHistory(w http.ResponseWriter, r *http.Request) {
	data := RouteHistoryRequest{Limit: 10}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			render.Render(w, r, ErrInvalidRequest(errors.New("limit must be an integer")))
			return
		}
		data.Limit = limit
	}
	if !validateRequest(w, r, data) {
		return
	}

	routes, err := h.svc.RouteHistory(r.Context(), data.Limit)
	if err != nil {
		render.Render(w, r, ErrChi(err))
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, RouteHistoryResponse{Routes: routes})
}

// ErrResponse model info
//
//	@Description	model untuk error response
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText    string   `json:"status"`          // user-level status message
	AppCode       int64    `json:"code,omitempty"`  // application-specific error code
	ErrorText     string   `json:"error,omitempty"` // application-level error message, for debugging
	ErrValidation []string `json:"validation,omitempty"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrValidation(err error, errV []error) render.Renderer {
	vv := []string{}
	for _, v := range errV {
		vv = append(vv, v.Error())
	}
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
		ErrValidation:  vv,
	}
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: 400,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrChi(err error) render.Renderer {
	statusText := ""
	switch getStatusCode(err) {
	case http.StatusNotFound:
		statusText = "Resource not found."
	case http.StatusInternalServerError:
		statusText = "Internal server error."
	case http.StatusConflict:
		statusText = "Resource conflict."
	case http.StatusBadRequest:
		statusText = "Bad request."
	default:
		statusText = "Error."
	}

	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: getStatusCode(err),
		StatusText:     statusText,
		ErrorText:      err.Error(),
	}
}

func getStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ierr *server.Error
	if !errors.As(err, &ierr) {
		return http.StatusInternalServerError
	}
	switch ierr.Code() {
	case server.ErrInternalServerError:
		return http.StatusInternalServerError
	case server.ErrNotFound:
		return http.StatusNotFound
	case server.ErrConflict:
		return http.StatusConflict
	case server.ErrBadParamInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}
