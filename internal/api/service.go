package api

import (
	"crypto/subtle"
	"net/http"

	"github.com/best-lviv/ctf-bot/internal/broadcast"
	"github.com/best-lviv/ctf-bot/internal/config"
	"github.com/best-lviv/ctf-bot/internal/gate"
	"github.com/best-lviv/ctf-bot/internal/teamsvc"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// Service exposes the administrative operations over HTTP so organizers can
// script them: set the event phase, set team flags, trigger a broadcast.
type Service struct {
	config     *config.Config
	teams      *teamsvc.Service
	gate       *gate.Gate
	dispatcher *broadcast.Dispatcher
}

func NewService(cfg *config.Config, teams *teamsvc.Service, g *gate.Gate, dispatcher *broadcast.Dispatcher) *Service {
	return &Service{
		config:     cfg,
		teams:      teams,
		gate:       g,
		dispatcher: dispatcher,
	}
}

func (s *Service) Register(e *echo.Echo) {
	admin := e.Group("/admin", s.requireToken)
	admin.POST("/phase", s.handleSetPhase())
	admin.POST("/team_status", s.handleSetTeamStatus())
	admin.POST("/broadcast", s.handleBroadcast())
}

func (s *Service) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := c.Request().Header.Get("X-Admin-Token")
		if s.config.APIToken == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(s.config.APIToken)) != 1 {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid admin token"})
		}
		return next(c)
	}
}

func (s *Service) handleSetPhase() echo.HandlerFunc {
	type request struct {
		Phase string `json:"phase"`
	}

	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}

		phase, err := gate.ParsePhase(req.Phase)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}

		if err := s.gate.Set(c.Request().Context(), phase); err != nil {
			logrus.Errorf("failed to set phase: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to set phase"})
		}

		logrus.Infof("event phase set to %q via api", phase)
		return c.JSON(http.StatusOK, echo.Map{"phase": string(phase)})
	}
}

func (s *Service) handleSetTeamStatus() echo.HandlerFunc {
	type request struct {
		TeamName       string `json:"team_name"`
		TestTaskPassed bool   `json:"test_task_passed"`
		IsParticipant  bool   `json:"is_participant"`
	}

	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if req.TeamName == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "team_name is required"})
		}

		matched, err := s.teams.SetStatusByName(c.Request().Context(), req.TeamName, req.TestTaskPassed, req.IsParticipant)
		if err != nil {
			logrus.Errorf("failed to set team status: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to set team status"})
		}
		if !matched {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "team not found"})
		}

		logrus.Infof("team %q status set via api", req.TeamName)
		return c.JSON(http.StatusOK, echo.Map{"team_name": req.TeamName})
	}
}

func (s *Service) handleBroadcast() echo.HandlerFunc {
	type request struct {
		Text string `json:"text"`
	}

	return func(c echo.Context) error {
		var req request
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
		}
		if req.Text == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "text is required"})
		}

		attempted, failed, err := s.dispatcher.Broadcast(c.Request().Context(), req.Text)
		if err != nil {
			logrus.Errorf("broadcast failed: %v", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "broadcast failed"})
		}

		return c.JSON(http.StatusOK, echo.Map{
			"attempted": attempted,
			"failed":    failed,
			"succeeded": attempted - failed,
		})
	}
}
