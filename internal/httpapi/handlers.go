package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"nukewar/internal/app/results"
	"nukewar/internal/ports"

	"github.com/google/uuid"
)

// playerRef accepts a player id sent either as a JSON string or a number.
type playerRef string

func (p *playerRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = playerRef(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("player id must be a string or a number")
	}
	*p = playerRef(n.String())
	return nil
}

// GameResultRequest is the body of POST /api/game-result. playerFid and
// outcome are the field names used by older clients.
type GameResultRequest struct {
	MatchID     string    `json:"matchId"`
	PlayerID    playerRef `json:"playerId"`
	PlayerFid   playerRef `json:"playerFid"`
	Result      string    `json:"result"`
	Outcome     string    `json:"outcome"`
	Username    string    `json:"username"`
	Reason      string    `json:"reason"`
	Rounds      int       `json:"rounds"`
	PlayerCards int       `json:"playerCards"`
	CPUCards    int       `json:"cpuCards"`
}

func (req GameResultRequest) outcome(now time.Time) ports.Outcome {
	o := ports.Outcome{
		MatchID:     req.MatchID,
		PlayerID:    string(req.PlayerID),
		Username:    req.Username,
		Result:      ports.Result(req.Result),
		Reason:      req.Reason,
		Rounds:      req.Rounds,
		PlayerCards: req.PlayerCards,
		CPUCards:    req.CPUCards,
		EndedAt:     now,
	}
	if o.PlayerID == "" {
		o.PlayerID = string(req.PlayerFid)
	}
	if o.Result == "" {
		o.Result = ports.Result(req.Outcome)
	}
	return o
}

type gameResultResponse struct {
	Success bool   `json:"success"`
	MatchID string `json:"matchId"`
	Message string `json:"message"`
}

// handleGameResult requires matchId so a retried post is counted once.
func (s *Server) handleGameResult(w http.ResponseWriter, r *http.Request) {
	s.recordGameResult(w, r, true)
}

// handleLegacyResult serves POST /api/nuke. Older clients never sent a match
// id, so one is generated and a retried post counts again.
func (s *Server) handleLegacyResult(w http.ResponseWriter, r *http.Request) {
	s.recordGameResult(w, r, false)
}

func (s *Server) recordGameResult(w http.ResponseWriter, r *http.Request, requireMatchID bool) {
	var req GameResultRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	o := req.outcome(time.Now().UTC())
	if o.PlayerID == "" || o.Result == "" {
		writeError(w, r, http.StatusBadRequest, "Missing required fields")
		return
	}
	if o.MatchID == "" {
		if requireMatchID {
			writeError(w, r, http.StatusBadRequest, "matchId is required")
			return
		}
		o.MatchID = uuid.NewString()
	}
	if !o.Result.Valid() {
		writeError(w, r, http.StatusBadRequest, "result must be win, loss or tie")
		return
	}

	if s.verifier.Enabled() {
		fid, err := s.verifier.Verify(r.Header.Get("Authorization"))
		if err != nil {
			s.logger.WithError(err).WithField("player_id", o.PlayerID).Warn("rejected host token")
			writeError(w, r, http.StatusUnauthorized, "Invalid or missing host token")
			return
		}
		if fid != o.PlayerID {
			writeError(w, r, http.StatusForbidden, "Token does not belong to this player")
			return
		}
	}

	if err := s.recorder.Record(r.Context(), o); err != nil {
		if errors.Is(err, results.ErrInvalidOutcome) {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to store game result")
		return
	}

	writeJSON(w, http.StatusOK, gameResultResponse{
		Success: true,
		MatchID: o.MatchID,
		Message: "Game result stored successfully",
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	playerID := q.Get("playerId")
	if playerID == "" {
		playerID = q.Get("playerFid")
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	switch q.Get("action") {
	case "leaderboard":
		entries, err := s.board.Top(r.Context(), limit)
		if err != nil {
			s.queryFailed(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})

	case "stats":
		if playerID == "" {
			writeError(w, r, http.StatusBadRequest, "Player id required")
			return
		}
		entry, err := s.board.Stats(r.Context(), playerID)
		if err != nil {
			s.queryFailed(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"stats": entry})

	case "recent":
		if playerID == "" {
			writeError(w, r, http.StatusBadRequest, "Player id required")
			return
		}
		games, err := s.board.Recent(r.Context(), playerID, limit)
		if err != nil {
			s.queryFailed(w, r, err)
			return
		}
		if games == nil {
			games = []ports.Outcome{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})

	default:
		writeError(w, r, http.StatusBadRequest, "Invalid action")
	}
}

func (s *Server) queryFailed(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.WithError(err).WithField("action", r.URL.Query().Get("action")).Error("query failed")
	writeError(w, r, http.StatusInternalServerError, "Failed to fetch data")
}
