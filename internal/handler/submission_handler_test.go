package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/handler"
	"github.com/noah-isme/exeval-api/internal/service"
)

type mockSubmissionService struct {
	service.SubmissionService

	lastActor    service.Actor
	lastOptionID uint
	lastPayload  dto.SetOptionRequest
	lastFilter   dto.SubmissionFilter
	listCalls    int
	response     dto.SubmissionResponse
	err          error
}

func (m *mockSubmissionService) List(_ context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	m.lastFilter = filter
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return []dto.SubmissionResponse{m.response}, nil
}

func (m *mockSubmissionService) SetOption(_ context.Context, actor service.Actor, optionID uint, payload dto.SetOptionRequest) (dto.SubmissionResponse, error) {
	m.lastActor = actor
	m.lastOptionID = optionID
	m.lastPayload = payload
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func (m *mockSubmissionService) Get(_ context.Context, id uint) (dto.SubmissionResponse, error) {
	if m.err != nil {
		return dto.SubmissionResponse{}, m.err
	}
	return m.response, nil
}

func newSubmissionTestApp(svc service.SubmissionService) *fiber.App {
	app := fiber.New()
	authenticated := func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(100))
		c.Locals("user_role", service.RoleParticipant)
		return c.Next()
	}

	h := handler.NewSubmissionHandler(svc, zerolog.New(io.Discard))
	h.Register(app.Group("/api/v1/submissions", authenticated))
	h.RegisterOptions(app.Group("/api/v1/options", authenticated))
	h.RegisterComments(app.Group("/api/v1/comments", authenticated))
	return app
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestSubmissionHandler_SetOption(t *testing.T) {
	svc := &mockSubmissionService{response: dto.SubmissionResponse{ID: 5, Score: 12.5}}
	app := newSubmissionTestApp(svc)

	body, err := json.Marshal(map[string]bool{"selected": true})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/options/42", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.SubmissionResponse `json:"data"`
		Message string                 `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, uint(5), response.Data.ID)
	require.InDelta(t, 12.5, response.Data.Score, 1e-9)
	require.Equal(t, uint(42), svc.lastOptionID)
	require.Equal(t, uint(100), svc.lastActor.ID)
	require.Equal(t, service.RoleParticipant, svc.lastActor.Role)
	require.NotNil(t, svc.lastPayload.Selected)
	require.True(t, *svc.lastPayload.Selected)
}

func TestSubmissionHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", service.ErrOptionNotFound, fiber.StatusNotFound},
		{"forbidden", service.ErrForbidden, fiber.StatusForbidden},
		{"not active", service.ErrSubmissionNotActive, fiber.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockSubmissionService{err: tc.err}
			app := newSubmissionTestApp(svc)

			body, err := json.Marshal(map[string]bool{"selected": false})
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPatch, "/api/v1/options/42", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			var response struct {
				Success bool   `json:"success"`
				Message string `json:"message"`
			}
			decodeResponse(t, resp, &response)
			require.False(t, response.Success)
		})
	}
}

func TestSubmissionHandler_ListFilterValidation(t *testing.T) {
	svc := &mockSubmissionService{}
	app := newSubmissionTestApp(svc)

	// A malformed filter is rejected outright, not ignored.
	for _, query := range []string{"team_id=abc", "evaluation_id=-1", "move=x", "user_id=1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions?"+query, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, fiber.StatusBadRequest, resp.StatusCode, query)
	}
	require.Zero(t, svc.listCalls)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions?team_id=7&move=2", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, 1, svc.listCalls)
	require.NotNil(t, svc.lastFilter.TeamID)
	require.Equal(t, uint(7), *svc.lastFilter.TeamID)
	require.NotNil(t, svc.lastFilter.MoveNumber)
	require.Equal(t, 2, *svc.lastFilter.MoveNumber)
}

func TestSubmissionHandler_BadIDs(t *testing.T) {
	svc := &mockSubmissionService{}
	app := newSubmissionTestApp(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/not-a-number", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
