package core

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	userKey    = "core.user"
	profileKey = "core.profile"
	tokenKey   = "core.token"

	SignInPath = "/signin"
)

const (
	BulkPublish   = "publish"
	BulkUnpublish = "unpublish"
	BulkDelete    = "delete"
	BulkDuplicate = "duplicate"
)

type Handlers interface {
	RequireSession(gctx *gin.Context)

	GetEvents(gctx *gin.Context)
	GetEventsOnDay(gctx *gin.Context)
	GetCalendar(gctx *gin.Context)
	GetOrganizations(gctx *gin.Context)
	GetOrganizationEvents(gctx *gin.Context)

	SignIn(gctx *gin.Context)
	SignOut(gctx *gin.Context)
	Me(gctx *gin.Context)
	Invite(gctx *gin.Context)
	AcceptInvite(gctx *gin.Context)

	GetDashboard(gctx *gin.Context)
	PostEvents(gctx *gin.Context)
	PutEvent(gctx *gin.Context)
	DeleteEvent(gctx *gin.Context)
	DuplicateEvent(gctx *gin.Context)
	PublishEvent(gctx *gin.Context)
	UnpublishEvent(gctx *gin.Context)
	BulkEvents(gctx *gin.Context)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type acceptInviteRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type inviteRequest struct {
	Email string `json:"email"`
}

type createEventsRequest struct {
	Event
	Recurrence RecurrenceSpec `json:"recurrence"`
}

type bulkRequest struct {
	Action string   `json:"action"`
	Ids    []string `json:"ids"`
}

type organizationsResponse struct {
	Organizations []Organization `json:"organizations"`
	Categories    []string       `json:"categories"`
}

type meResponse struct {
	User    *User    `json:"user"`
	Profile *Profile `json:"profile"`
}

type handlers struct {
	state *State
}

func NewHandlers(state *State) Handlers {
	return &handlers{state: state}
}

// Routes registers every endpoint on router.
func Routes(router gin.IRouter, h Handlers) {
	router.GET("/events", h.GetEvents)
	router.GET("/events.ics", h.GetCalendar)
	router.GET("/events/day/:date", h.GetEventsOnDay)
	router.GET("/organizations", h.GetOrganizations)
	router.GET("/organizations/:name/events", h.GetOrganizationEvents)

	router.POST("/auth/signin", h.SignIn)
	router.POST("/auth/invite/accept", h.AcceptInvite)

	authorized := router.Group("", h.RequireSession)
	authorized.POST("/auth/signout", h.SignOut)
	authorized.GET("/auth/me", h.Me)
	authorized.POST("/auth/invite", h.Invite)

	dashboard := authorized.Group("/dashboard/events")
	dashboard.GET("", h.GetDashboard)
	dashboard.POST("", h.PostEvents)
	dashboard.POST("/bulk", h.BulkEvents)
	dashboard.PUT("/:id", h.PutEvent)
	dashboard.DELETE("/:id", h.DeleteEvent)
	dashboard.POST("/:id/duplicate", h.DuplicateEvent)
	dashboard.POST("/:id/publish", h.PublishEvent)
	dashboard.POST("/:id/unpublish", h.UnpublishEvent)
}

// RequireSession resolves the bearer token into the signed-in user and the
// organization they manage. Accounts without an organization are sent back to
// the sign-in page.
func (h *handlers) RequireSession(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	token, ok := strings.CutPrefix(gctx.GetHeader("Authorization"), "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		abort(gctx, ErrInvalidToken, "missing bearer token")
		return
	}

	user, profile, err := h.state.Backend.CurrentUser(ctx, token)
	if err != nil {
		abort(gctx, err, "failed to resolve session")
		return
	}

	if user == nil {
		abort(gctx, ErrInvalidToken, "no active session")
		return
	}

	if profile == nil || profile.Organization == nil {
		abort(gctx, ErrNotLinked, "account is not linked")
		return
	}

	gctx.Set(userKey, user)
	gctx.Set(profileKey, profile)
	gctx.Set(tokenKey, token)
	gctx.Request = gctx.Request.WithContext(log.Ctx(ctx).With().
		Str("user_id", user.Id).
		Str("organization_id", profile.Organization.Id).
		Logger().WithContext(ctx))

	gctx.Next()
}

func (h *handlers) GetEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	events, err := h.state.Backend.ListPublishedEvents(ctx)
	if err != nil {
		abort(gctx, err, "failed to list events")
		return
	}

	view := BuildEventsView(ForDisplay(events), FilterState{
		Category:      gctx.DefaultQuery("category", AllCategories),
		Organizations: gctx.QueryArray("organizations"),
		SearchTerm:    gctx.Query("search"),
		Now:           h.state.Now(),
	})

	gctx.JSON(http.StatusOK, view)
}

func (h *handlers) GetEventsOnDay(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	date := gctx.Param("date")

	_, err := ParseDate(date)
	if err != nil {
		abort(gctx, NewValidationError("date", "must be YYYY-MM-DD"), "invalid date")
		return
	}

	events, err := h.state.Backend.ListPublishedEvents(ctx)
	if err != nil {
		abort(gctx, err, "failed to list events")
		return
	}

	gctx.JSON(http.StatusOK, EventsOn(ForDisplay(events), date))
}

func (h *handlers) GetCalendar(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	events, err := h.state.Backend.ListPublishedEvents(ctx)
	if err != nil {
		abort(gctx, err, "failed to list events")
		return
	}

	gctx.Header("Content-Disposition", `attachment; filename="events.ics"`)
	gctx.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(RenderCalendar(events, h.state.Now())))
}

func (h *handlers) GetOrganizations(gctx *gin.Context) {
	organizations := FilterOrganizations(h.state.Directory, gctx.Query("search"), gctx.DefaultQuery("category", AllCategories))

	gctx.JSON(http.StatusOK, organizationsResponse{
		Organizations: SortOrganizations(organizations, gctx.DefaultQuery("sort", SortByName)),
		Categories:    OrganizationCategories(h.state.Directory),
	})
}

func (h *handlers) GetOrganizationEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	name := strings.TrimSpace(gctx.Param("name"))
	if name == "" {
		abort(gctx, NewValidationError("name", "is required"), "invalid organization name")
		return
	}

	organizations, err := h.state.Backend.ListOrganizations(ctx)
	if err != nil {
		abort(gctx, err, "failed to list organizations")
		return
	}

	if len(organizations) == 0 {
		organizations = h.state.Directory
	}

	events, err := h.state.Backend.ListPublishedEvents(ctx)
	if err != nil {
		abort(gctx, err, "failed to list events")
		return
	}

	// Matching sees the same club names the listing shows.
	gctx.JSON(http.StatusOK, RelatedEvents(name, ForDisplay(events), organizations, h.state.Now()))
}

func (h *handlers) SignIn(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var request credentialsRequest

	err := gctx.ShouldBindJSON(&request)
	if err != nil {
		abort(gctx, NewValidationError("body", err.Error()), "failed to bind JSON")
		return
	}

	session, err := h.state.Backend.SignIn(ctx, request.Email, request.Password)
	if err != nil {
		abort(gctx, err, "sign in failed")
		return
	}

	gctx.JSON(http.StatusOK, session)
}

func (h *handlers) SignOut(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	err := h.state.Backend.SignOut(ctx, gctx.GetString(tokenKey))
	if err != nil {
		abort(gctx, err, "sign out failed")
		return
	}

	gctx.Status(http.StatusNoContent)
}

func (h *handlers) Me(gctx *gin.Context) {
	user, profile := session(gctx)
	gctx.JSON(http.StatusOK, meResponse{User: user, Profile: profile})
}

// Invite links a new account to the caller's organization.
func (h *handlers) Invite(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	var request inviteRequest

	err := gctx.ShouldBindJSON(&request)
	if err != nil {
		abort(gctx, NewValidationError("body", err.Error()), "failed to bind JSON")
		return
	}

	invitation, err := h.state.Backend.Invite(ctx, request.Email, profile.Organization.Id)
	if err != nil {
		abort(gctx, err, "invite failed")
		return
	}

	gctx.JSON(http.StatusCreated, invitation)
}

func (h *handlers) AcceptInvite(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var request acceptInviteRequest

	err := gctx.ShouldBindJSON(&request)
	if err != nil {
		abort(gctx, NewValidationError("body", err.Error()), "failed to bind JSON")
		return
	}

	session, err := h.state.Backend.AcceptInvite(ctx, request.Token, request.Password)
	if err != nil {
		abort(gctx, err, "accepting invite failed")
		return
	}

	gctx.JSON(http.StatusOK, session)
}

func (h *handlers) GetDashboard(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	events, err := h.state.Backend.ListEventsByOrganization(ctx, profile.Organization.Id)
	if err != nil {
		abort(gctx, err, "failed to list organization events")
		return
	}

	gctx.JSON(http.StatusOK, BuildDashboardView(WithClub(events, *profile.Organization), h.state.Now()))
}

// PostEvents creates an event, or the whole series when a recurrence is given.
func (h *handlers) PostEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	var request createEventsRequest

	err := gctx.ShouldBindJSON(&request)
	if err != nil {
		abort(gctx, NewValidationError("body", err.Error()), "failed to bind JSON")
		return
	}

	events, err := PrepareEvents(request.Event, profile.Organization.Id, request.Recurrence)
	if err != nil {
		abort(gctx, err, "event validation failed")
		return
	}

	created, err := h.state.Backend.CreateEvents(ctx, events)
	if err != nil {
		abort(gctx, err, "creating events failed")
		return
	}

	log.Ctx(ctx).Info().Int("count", len(created)).Msg("events created")

	gctx.JSON(http.StatusCreated, WithClub(created, *profile.Organization))
}

func (h *handlers) PutEvent(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	var patch EventPatch

	err := gctx.ShouldBindJSON(&patch)
	if err != nil {
		abort(gctx, NewValidationError("body", err.Error()), "failed to bind JSON")
		return
	}

	err = ValidatePatch(patch)
	if err != nil {
		abort(gctx, err, "event validation failed")
		return
	}

	event, err := h.state.Backend.UpdateEvent(ctx, profile.Organization.Id, gctx.Param("id"), patch)
	if err != nil {
		abort(gctx, err, "updating event failed")
		return
	}

	gctx.JSON(http.StatusOK, event)
}

func (h *handlers) DeleteEvent(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	err := h.state.Backend.DeleteEvent(ctx, profile.Organization.Id, gctx.Param("id"))
	if err != nil {
		abort(gctx, err, "deleting event failed")
		return
	}

	gctx.Status(http.StatusNoContent)
}

func (h *handlers) DuplicateEvent(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	created, err := h.duplicate(gctx, profile.Organization.Id, []string{gctx.Param("id")})
	if err != nil {
		abort(gctx, err, "duplicating event failed")
		return
	}

	log.Ctx(ctx).Info().Str("source_id", gctx.Param("id")).Msg("event duplicated")

	gctx.JSON(http.StatusCreated, created[0])
}

func (h *handlers) PublishEvent(gctx *gin.Context) {
	h.setStatus(gctx, StatusPublished)
}

func (h *handlers) UnpublishEvent(gctx *gin.Context) {
	h.setStatus(gctx, StatusDraft)
}

func (h *handlers) setStatus(gctx *gin.Context, status Status) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	events, err := h.state.Backend.SetStatus(ctx, profile.Organization.Id, []string{gctx.Param("id")}, status)
	if err != nil {
		abort(gctx, err, "changing event status failed")
		return
	}

	if len(events) == 0 {
		abort(gctx, ErrEventNotFound, "changing event status failed")
		return
	}

	gctx.JSON(http.StatusOK, events[0])
}

// BulkEvents applies one action to every selected event. Either all of them
// change or none do.
func (h *handlers) BulkEvents(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	var request bulkRequest

	err := gctx.ShouldBindJSON(&request)
	if err != nil {
		abort(gctx, NewValidationError("body", err.Error()), "failed to bind JSON")
		return
	}

	err = ValidateIds(request.Ids)
	if err != nil {
		abort(gctx, err, "bulk validation failed")
		return
	}

	organizationId := profile.Organization.Id

	switch request.Action {
	case BulkPublish, BulkUnpublish:
		status := StatusPublished
		if request.Action == BulkUnpublish {
			status = StatusDraft
		}

		events, err := h.state.Backend.SetStatus(ctx, organizationId, request.Ids, status)
		if err != nil {
			abort(gctx, err, "bulk status change failed")
			return
		}

		gctx.JSON(http.StatusOK, events)
	case BulkDelete:
		err = h.state.Backend.DeleteEvents(ctx, organizationId, request.Ids)
		if err != nil {
			abort(gctx, err, "bulk delete failed")
			return
		}

		gctx.Status(http.StatusNoContent)
	case BulkDuplicate:
		created, err := h.duplicate(gctx, organizationId, request.Ids)
		if err != nil {
			abort(gctx, err, "bulk duplicate failed")
			return
		}

		gctx.JSON(http.StatusCreated, created)
	default:
		abort(gctx, NewValidationError("action", "must be one of publish, unpublish, delete, duplicate"), "unknown bulk action")
		return
	}

	log.Ctx(ctx).Info().Str("action", request.Action).Int("count", len(request.Ids)).Msg("bulk action applied")
}

// duplicate copies the organization's events with the given ids, in their
// listing order. Unknown ids fail the whole request.
func (h *handlers) duplicate(gctx *gin.Context, organizationId string, ids []string) ([]Event, error) {
	ctx := gctx.Request.Context()
	_, profile := session(gctx)

	events, err := h.state.Backend.ListEventsByOrganization(ctx, organizationId)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	copies := make([]Event, 0, len(wanted))

	for _, event := range events {
		if _, ok := wanted[event.Id]; ok {
			copies = append(copies, DuplicateEvent(event, organizationId))
		}
	}

	if len(copies) != len(wanted) {
		return nil, ErrEventNotFound
	}

	err = ValidateTitles(copies)
	if err != nil {
		return nil, err
	}

	created, err := h.state.Backend.CreateEvents(ctx, copies)
	if err != nil {
		return nil, err
	}

	return WithClub(created, *profile.Organization), nil
}

func session(gctx *gin.Context) (*User, *Profile) {
	user, _ := gctx.MustGet(userKey).(*User)
	profile, _ := gctx.MustGet(profileKey).(*Profile)

	return user, profile
}

// abort logs err and writes the matching status with the JSON error envelope.
func abort(gctx *gin.Context, err error, message string) {
	ctx := gctx.Request.Context()

	status := statusOf(err)

	switch {
	case status == http.StatusForbidden:
		gctx.Header("Location", SignInPath)
		log.Ctx(ctx).Warn().Err(err).Msg(message)
	case status >= http.StatusInternalServerError:
		log.Ctx(ctx).Error().Err(err).Msg(message)
	default:
		log.Ctx(ctx).Info().Err(err).Msg(message)
	}

	gctx.AbortWithStatusJSON(status, NewError(message, err))
}

func statusOf(err error) int {
	var backendErr *BackendError

	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotLinked):
		return http.StatusForbidden
	case errors.Is(err, ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.As(err, &backendErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
