package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Dosada05/fightclub-brackets/brackets"
	"github.com/Dosada05/fightclub-brackets/services"
)

type BracketHandler struct {
	bracketService services.BracketService
}

func NewBracketHandler(bs services.BracketService) *BracketHandler {
	return &BracketHandler{bracketService: bs}
}

func (h *BracketHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var input services.GenerateInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	preview, err := h.bracketService.Preview(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// verifyMatch accepts match rows from any source. Round may be a JSON number
// or a string; both are checked as text.
type verifyMatch struct {
	ID           int               `json:"id"`
	Name         string            `json:"name,omitempty"`
	Round        json.RawMessage   `json:"round"`
	NextMatchID  *int              `json:"next_match_id"`
	Participants []json.RawMessage `json:"participants"`
	State        string            `json:"state,omitempty"`
}

func (m verifyMatch) link() brackets.ChainLink {
	round := strings.TrimSpace(string(m.Round))
	var s string
	if err := json.Unmarshal(m.Round, &s); err == nil {
		round = s
	}
	return brackets.ChainLink{ID: m.ID, Round: round, NextMatchID: m.NextMatchID, Slots: len(m.Participants)}
}

func (h *BracketHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Matches []verifyMatch `json:"matches"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	links := make([]brackets.ChainLink, len(input.Matches))
	for i, m := range input.Matches {
		links[i] = m.link()
	}

	report := h.bracketService.Verify(links)
	if err := writeJSON(w, http.StatusOK, jsonResponse{"report": report}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) List(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	list, err := h.bracketService.List(r.Context(), competitionID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"brackets": list}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Matches(w http.ResponseWriter, r *http.Request) {
	competitionID, bracketID, err := bracketPath(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.bracketService.Matches(r.Context(), competitionID, bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Create(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.Create(r.Context(), competitionID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	competitionID, bracketID, err := bracketPath(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.CreateBracketInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	bracket, err := h.bracketService.Regenerate(r.Context(), competitionID, bracketID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"bracket": bracket}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *BracketHandler) Delete(w http.ResponseWriter, r *http.Request) {
	competitionID, bracketID, err := bracketPath(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.bracketService.Delete(r.Context(), competitionID, bracketID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func bracketPath(r *http.Request) (competitionID, bracketID int, err error) {
	competitionID, err = getIDFromURL(r, "competitionID")
	if err != nil {
		return 0, 0, err
	}
	bracketID, err = getIDFromURL(r, "bracketID")
	if err != nil {
		return 0, 0, err
	}
	return competitionID, bracketID, nil
}
