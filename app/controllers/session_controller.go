package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/busvas-search/app/requests"
	"github.com/busvas-search/app/responses"
	"github.com/busvas-search/app/services"
	"github.com/busvas-search/internal/navigation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionController drives interactive sessions: a view navigated step by
// step, observed through an NDJSON event feed.
type SessionController struct {
	sessionService *services.SessionService
	logger         *zap.Logger
}

func NewSessionController(sessionService *services.SessionService, logger *zap.Logger) *SessionController {
	return &SessionController{sessionService: sessionService, logger: logger}
}

func (sc *SessionController) sessionResponse(c *gin.Context, status int, s *services.Session) {
	c.JSON(status, responses.SessionResponse{
		ID:          s.ID,
		Owner:       s.Owner,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		State:       s.View().Snapshot(),
		LastOutcome: responses.NewOutcomeResponse(s.LastOutcome()),
	})
}

func (sc *SessionController) Create(c *gin.Context) {
	var req requests.CreateSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	s, err := sc.sessionService.Create(req.Owner)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sc.sessionResponse(c, http.StatusCreated, s)
}

func (sc *SessionController) Get(c *gin.Context) {
	s, err := sc.sessionService.Get(c.Param("sessionID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	sc.sessionResponse(c, http.StatusOK, s)
}

func (sc *SessionController) Delete(c *gin.Context) {
	if err := sc.sessionService.Delete(c.Param("sessionID")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Submit starts a navigation; 202 because it runs after the debounce delay
func (sc *SessionController) Submit(c *gin.Context) {
	var req requests.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("sessionID")
	q, err := sc.sessionService.Submit(id, req.Origin, req.Destination)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, responses.SubmitResponse{
		SessionID: id,
		Query:     q,
		Events:    "/v1/sessions/" + id + "/events",
	})
}

func (sc *SessionController) Select(c *gin.Context) {
	var req requests.SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	state, err := sc.sessionService.Select(c.Request.Context(), c.Param("sessionID"), req.ProvinceID, req.TerminalID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func (sc *SessionController) ToggleAll(c *gin.Context) {
	state, err := sc.sessionService.ToggleAll(c.Param("sessionID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func isFinalStep(step string) bool {
	return step == navigation.StepCompleted || step == navigation.StepCanceled || step == navigation.StepNoMatches
}

// Events streams navigation events as NDJSON until the client leaves.
// With once=1 the stream ends after the first run finishes; gzip=1 compresses it.
func (sc *SessionController) Events(c *gin.Context) {
	s, err := sc.sessionService.Get(c.Param("sessionID"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	once := c.Query("once") == "1"

	events, unsubscribe := s.Subscribe()
	defer unsubscribe()

	writer, closeWriter := ndjsonWriter(c, c.Query("gzip") == "1")
	defer closeWriter()
	c.Status(http.StatusOK)
	writer.Flush()

	encoder := json.NewEncoder(writer)
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if err := encoder.Encode(e); err != nil {
				sc.logger.Debug("Event stream closed", zap.String("session_id", s.ID), zap.Error(err))
				return
			}
			writer.Flush()
			if once && isFinalStep(e.Step) {
				return
			}
		}
	}
}
