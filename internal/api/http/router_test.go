package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpapi "github.com/spec-kit/bugtracker/internal/api/http"
	"github.com/spec-kit/bugtracker/internal/api/http/handlers"
	"github.com/spec-kit/bugtracker/internal/auth"
	"github.com/spec-kit/bugtracker/internal/config"
	"github.com/spec-kit/bugtracker/internal/domain"
	"github.com/spec-kit/bugtracker/internal/observability"
	"github.com/spec-kit/bugtracker/internal/repository"
	"github.com/spec-kit/bugtracker/internal/service"
)

type stubTx struct{ pgx.Tx }

func (stubTx) Commit(context.Context) error   { return nil }
func (stubTx) Rollback(context.Context) error { return nil }

type stubDB struct{}

func (stubDB) Begin(context.Context) (pgx.Tx, error) { return stubTx{}, nil }

type memTicketRepo struct {
	tickets map[string]*domain.Ticket
	seq     int
}

func (r *memTicketRepo) WithTx(pgx.Tx) repository.TicketRepository { return r }

func (r *memTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.seq++
	ticket.ID = fmt.Sprintf("ticket-%d", r.seq)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memTicketRepo) UpdateState(_ context.Context, id string, state domain.TicketState, expectedVersion int64) error {
	ticket, ok := r.tickets[id]
	if !ok || ticket.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	ticket.State = state
	ticket.Version++
	return nil
}

func (r *memTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *memTicketRepo) ListByProject(_ context.Context, projectID string) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.ProjectID == projectID {
			result = append(result, *ticket)
		}
	}
	return result, nil
}

func (r *memTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	return nil
}

type memAuditRepo struct {
	entries []domain.AuditLog
	seq     int
}

func (r *memAuditRepo) WithTx(pgx.Tx) repository.AuditLogRepository { return r }

func (r *memAuditRepo) Create(_ context.Context, entry *domain.AuditLog) error {
	r.seq++
	entry.ID = fmt.Sprintf("log-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *memAuditRepo) ListAll(context.Context) ([]domain.AuditLog, error) {
	return append([]domain.AuditLog{}, r.entries...), nil
}

func (r *memAuditRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.AuditLog, error) {
	var result []domain.AuditLog
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *memAuditRepo) ListByUser(_ context.Context, userID string) ([]domain.AuditLog, error) {
	var result []domain.AuditLog
	for _, entry := range r.entries {
		if entry.ChangedBy == userID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *memAuditRepo) Delete(_ context.Context, id string) error {
	for i, entry := range r.entries {
		if entry.ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

type memProjectRepo struct {
	projects map[string]*domain.Project
}

func (r *memProjectRepo) Create(_ context.Context, project *domain.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *memProjectRepo) Update(_ context.Context, project *domain.Project) error {
	r.projects[project.ID] = project
	return nil
}

func (r *memProjectRepo) GetByID(_ context.Context, id string) (*domain.Project, error) {
	project, ok := r.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return project, nil
}

func (r *memProjectRepo) ListByTeam(_ context.Context, teamID string) ([]domain.Project, error) {
	var result []domain.Project
	for _, project := range r.projects {
		if project.TeamID == teamID {
			result = append(result, *project)
		}
	}
	return result, nil
}

func (r *memProjectRepo) Delete(_ context.Context, id string) error {
	delete(r.projects, id)
	return nil
}

type memTeamRepo struct {
	teams map[string]*domain.Team
}

func (r *memTeamRepo) Create(_ context.Context, team *domain.Team) error {
	r.teams[team.ID] = team
	return nil
}

func (r *memTeamRepo) Update(_ context.Context, team *domain.Team) error {
	r.teams[team.ID] = team
	return nil
}

func (r *memTeamRepo) GetByID(_ context.Context, id string) (*domain.Team, error) {
	team, ok := r.teams[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return team, nil
}

func (r *memTeamRepo) ListActive(context.Context) ([]domain.Team, error) {
	var result []domain.Team
	for _, team := range r.teams {
		if team.IsActive {
			result = append(result, *team)
		}
	}
	return result, nil
}

func (r *memTeamRepo) Delete(_ context.Context, id string) error {
	delete(r.teams, id)
	return nil
}

type memUserRepo struct {
	users map[string]*domain.User
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	user.ID = fmt.Sprintf("user-%d", len(r.users)+1)
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) ListByTeam(_ context.Context, teamID string) ([]domain.User, error) {
	var result []domain.User
	for _, user := range r.users {
		if user.TeamID != nil && *user.TeamID == teamID {
			result = append(result, *user)
		}
	}
	return result, nil
}

type memResetRepo struct {
	tokens map[string]*repository.PasswordResetToken
}

func (r *memResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.tokens[token.Token] = token
	return nil
}

func (r *memResetRepo) GetByToken(_ context.Context, token string) (*repository.PasswordResetToken, error) {
	found, ok := r.tokens[token]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return found, nil
}

func (r *memResetRepo) MarkUsed(context.Context, string) error { return nil }

type memDenylist struct {
	denied map[string]bool
}

func (d *memDenylist) Deny(_ context.Context, tokenID string, _ time.Duration) error {
	d.denied[tokenID] = true
	return nil
}

func (d *memDenylist) IsDenied(_ context.Context, tokenID string) (bool, error) {
	return d.denied[tokenID], nil
}

type apiFixture struct {
	app     *fiber.App
	tickets *service.TicketService
	auth    *service.AuthService
	users   *memUserRepo
	logs    *memAuditRepo
	metrics *observability.Metrics
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	users := &memUserRepo{users: map[string]*domain.User{
		"user-student": {ID: "user-student", Name: "Sam", Email: "sam@example.com", Role: domain.RoleStudent, Status: domain.UserStatusActive},
		"user-admin":   {ID: "user-admin", Name: "Ada", Email: "ada@example.com", Role: domain.RoleAdmin, Status: domain.UserStatusActive},
	}}
	projects := &memProjectRepo{projects: map[string]*domain.Project{
		"proj-1": {ID: "proj-1", TeamID: "team-1", Name: "Course Tracker", IsActive: true},
	}}
	teams := &memTeamRepo{teams: map[string]*domain.Team{
		"team-1": {ID: "team-1", Name: "Backend", IsActive: true},
	}}
	auditRepo := &memAuditRepo{}
	ticketRepo := &memTicketRepo{tickets: map[string]*domain.Ticket{}}
	denylist := &memDenylist{denied: map[string]bool{}}

	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 60
	cfg.Auth.BcryptCost = 4
	cfg.Auth.PasswordResetTTLMinutes = 30

	authService := service.NewAuthService(cfg, service.AuthDependencies{
		UserRepo:          users,
		PasswordResetRepo: &memResetRepo{tokens: map[string]*repository.PasswordResetToken{}},
		Denylist:          denylist,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		DB:          stubDB{},
		TicketRepo:  ticketRepo,
		ProjectRepo: projects,
		AuditRepo:   auditRepo,
	})
	teamService := service.NewTeamService(teams, users)
	projectService := service.NewProjectService(projects, teams)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	app := fiber.New()
	httpapi.RegisterMiddlewares(app, logger, metrics, 5*time.Second)
	httpapi.RegisterRoutes(app, httpapi.RouteConfig{
		Health:         handlers.NewHealthHandler("bugtracker-api", "test", nil, nil),
		Users:          handlers.NewUsersHandler(authService),
		Teams:          handlers.NewTeamsHandler(teamService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuditLogs:      handlers.NewAuditLogsHandler(ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users, denylist),
	})

	return &apiFixture{app: app, tickets: ticketService, auth: authService, users: users, logs: auditRepo, metrics: metrics}
}

func (f *apiFixture) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	user := f.users.users[userID]
	require.NotNil(t, user, "unknown fixture user %q", userID)
	token, _, err := f.auth.TokenManager().GenerateToken(user.ID, user.Role)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) request(t *testing.T, method, path, token string, body any) (*stdhttp.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := stdhttp.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	var envelope map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &envelope))
	}
	return resp, envelope
}

func (f *apiFixture) seedTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), "user-student", service.TicketCreateInput{
		ProjectID:   "proj-1",
		Description: "search returns deleted tickets",
	})
	require.NoError(t, err)
	return ticket
}

func TestChangeTicketStateEndpoint(t *testing.T) {
	f := newAPIFixture(t)
	ticket := f.seedTicket(t)
	token := f.tokenFor(t, "user-student")

	resp, envelope := f.request(t, stdhttp.MethodPost, "/api/changeTicketState", token, map[string]any{
		"ticketId": ticket.ID,
		"newState": "In Progress",
	})

	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, true, envelope["success"])

	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok, "expected audit entry in data, got %v", envelope["data"])
	assert.Equal(t, "STATUS_CHANGE", data["action"])
	assert.Equal(t, "New", data["oldValue"])
	assert.Equal(t, "In Progress", data["newValue"])
	assert.Equal(t, "user-student", data["changedBy"])
	assert.Equal(t, ticket.ID, data["ticketId"])
}

func TestChangeTicketStateEndpoint_IllegalTransition(t *testing.T) {
	f := newAPIFixture(t)
	ticket := f.seedTicket(t)
	token := f.tokenFor(t, "user-student")

	resp, envelope := f.request(t, stdhttp.MethodPost, "/api/changeTicketState", token, map[string]any{
		"ticketId": ticket.ID,
		"newState": "Completed",
	})

	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])
	assert.Equal(t, "Transition from New to Completed is not allowed.", envelope["message"])

	// The request counters see the status the error handler wrote, not the
	// default 200 the response started with.
	assert.EqualValues(t, 1, f.metrics.RequestCount("/api/changeTicketState", stdhttp.MethodPost, stdhttp.StatusBadRequest))
	assert.EqualValues(t, 0, f.metrics.RequestCount("/api/changeTicketState", stdhttp.MethodPost, stdhttp.StatusOK))
	assert.EqualValues(t, 1, f.metrics.ErrorCount("/api/changeTicketState", stdhttp.MethodPost, "INVALID_TRANSITION"))
}

func TestChangeTicketStateEndpoint_RequiresAuth(t *testing.T) {
	f := newAPIFixture(t)
	ticket := f.seedTicket(t)

	resp, envelope := f.request(t, stdhttp.MethodPost, "/api/changeTicketState", "", map[string]any{
		"ticketId": ticket.ID,
		"newState": "In Progress",
	})

	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])
}

func TestAuditLogEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	ticket := f.seedTicket(t)
	token := f.tokenFor(t, "user-student")

	_, _ = f.request(t, stdhttp.MethodPost, "/api/changeTicketState", token, map[string]any{
		"ticketId": ticket.ID,
		"newState": "In Backlog",
	})

	resp, envelope := f.request(t, stdhttp.MethodGet, "/api/logs/ticket/"+ticket.ID, token, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	entries, ok := envelope["data"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2) // CREATION then STATUS_CHANGE

	resp, envelope = f.request(t, stdhttp.MethodGet, "/api/logs/user/user-student", token, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	entries, ok = envelope["data"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)

	resp, envelope = f.request(t, stdhttp.MethodGet, "/api/logs", token, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	entries, ok = envelope["data"].([]any)
	require.True(t, ok)
	assert.Len(t, entries, 2)
}

func TestDeleteLogEndpoint_AdminOnly(t *testing.T) {
	f := newAPIFixture(t)
	ticket := f.seedTicket(t)
	studentToken := f.tokenFor(t, "user-student")
	adminToken := f.tokenFor(t, "user-admin")

	_, envelope := f.request(t, stdhttp.MethodPost, "/api/changeTicketState", studentToken, map[string]any{
		"ticketId": ticket.ID,
		"newState": "In Progress",
	})
	data := envelope["data"].(map[string]any)
	logID := data["id"].(string)

	resp, _ := f.request(t, stdhttp.MethodDelete, "/api/log/"+logID, studentToken, nil)
	assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)

	resp, _ = f.request(t, stdhttp.MethodDelete, "/api/log/"+logID, adminToken, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, stdhttp.MethodDelete, "/api/log/"+logID, adminToken, nil)
	assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode)

	// The ticket itself is untouched by log deletion.
	got, err := f.tickets.GetTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateInProgress, got.State)
}

func TestRegisterAndLoginFlow(t *testing.T) {
	f := newAPIFixture(t)

	resp, envelope := f.request(t, stdhttp.MethodPost, "/auth/register", "", map[string]any{
		"name":     "New Student",
		"email":    "new@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	assert.Equal(t, true, envelope["success"])

	resp, envelope = f.request(t, stdhttp.MethodPost, "/auth/login", "", map[string]any{
		"email":    "new@example.com",
		"password": "s3cret-pass",
	})
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	data, ok := envelope["data"].(map[string]any)
	require.True(t, ok)
	authData, ok := data["auth"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, authData["token"])

	resp, _ = f.request(t, stdhttp.MethodPost, "/auth/login", "", map[string]any{
		"email":    "new@example.com",
		"password": "wrong",
	})
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutRevokesToken(t *testing.T) {
	f := newAPIFixture(t)
	token := f.tokenFor(t, "user-student")

	resp, _ := f.request(t, stdhttp.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	resp, _ = f.request(t, stdhttp.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)

	resp, envelope := f.request(t, stdhttp.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, envelope["success"])
}

func TestHealthLive(t *testing.T) {
	f := newAPIFixture(t)

	req, err := stdhttp.NewRequest(stdhttp.MethodGet, "/health/live", nil)
	require.NoError(t, err)
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
}
