package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/fightclub-brackets/middleware"
	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/services"
)

type SynthesisHandler struct {
	synthesisService services.SynthesisService
	defaults         services.SynthesisConfig
	logger           *slog.Logger
}

func NewSynthesisHandler(ss services.SynthesisService, defaults services.SynthesisConfig, logger *slog.Logger) *SynthesisHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SynthesisHandler{synthesisService: ss, defaults: defaults, logger: logger}
}

// synthesisOverrides are the request-level changes to the configured
// defaults. Absent fields keep the default.
type synthesisOverrides struct {
	MinFightersPerBracket     *int                       `json:"min_fighters_per_bracket"`
	AutoBackfillFighters      *bool                      `json:"auto_backfill_fighters"`
	BackfillStrategy          *services.BackfillStrategy `json:"backfill_strategy"`
	PreferredBracketSizes     []int                      `json:"preferred_bracket_sizes"`
	MaxBracketsPerCompetition *int                       `json:"max_brackets_per_competition"`
	DeterministicSeed         *string                    `json:"deterministic_seed"`
	AllowedDivisions          []string                   `json:"allowed_divisions"`
	AdvanceByes               *bool                      `json:"advance_byes"`
	StartTime                 *time.Time                 `json:"start_time"`
}

func (o synthesisOverrides) apply(base services.SynthesisConfig) (services.SynthesisConfig, error) {
	cfg := base
	if o.MinFightersPerBracket != nil {
		cfg.MinFightersPerBracket = *o.MinFightersPerBracket
	}
	if o.AutoBackfillFighters != nil {
		cfg.AutoBackfillFighters = *o.AutoBackfillFighters
	}
	if o.BackfillStrategy != nil {
		cfg.BackfillStrategy = *o.BackfillStrategy
	}
	if o.PreferredBracketSizes != nil {
		cfg.PreferredBracketSizes = o.PreferredBracketSizes
	}
	if o.MaxBracketsPerCompetition != nil {
		cfg.MaxBracketsPerCompetition = *o.MaxBracketsPerCompetition
	}
	if o.DeterministicSeed != nil {
		cfg.DeterministicSeed = *o.DeterministicSeed
	}
	if o.AllowedDivisions != nil {
		cfg.AllowedDivisions = make([]models.DivisionKey, 0, len(o.AllowedDivisions))
		for _, s := range o.AllowedDivisions {
			key, err := models.ParseDivisionKey(s)
			if err != nil {
				return cfg, fmt.Errorf("%w: %v", services.ErrInvalidSynthesisConfig, err)
			}
			cfg.AllowedDivisions = append(cfg.AllowedDivisions, key)
		}
	}
	if o.AdvanceByes != nil {
		cfg.AdvanceByes = *o.AdvanceByes
	}
	if o.StartTime != nil {
		cfg.StartTime = o.StartTime
	}
	return cfg, nil
}

func (h *SynthesisHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Overrides are optional. Chunked requests report no length, so an empty
	// body is only detected once decoding hits EOF.
	var overrides synthesisOverrides
	if err := readJSON(w, r, &overrides); err != nil && !errors.Is(err, errEmptyBody) {
		badRequestResponse(w, r, err)
		return
	}
	cfg, err := overrides.apply(h.defaults)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	result, err := h.synthesisService.SynthesizeForCompetition(r.Context(), competitionID, cfg)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.requestLogger(r).Info("synthesis finished",
		slog.Int("competition_id", competitionID),
		slog.Int("brackets_created", result.BracketsCreated))

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SynthesisHandler) SynthesizeBatch(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CompetitionIDs []int `json:"competition_ids"`
		synthesisOverrides
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if len(input.CompetitionIDs) == 0 {
		badRequestResponse(w, r, fmt.Errorf("competition_ids must not be empty"))
		return
	}
	cfg, err := input.synthesisOverrides.apply(h.defaults)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := cfg.Validate(); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	results := h.synthesisService.SynthesizeBatch(r.Context(), input.CompetitionIDs, cfg)
	created := 0
	for _, res := range results {
		if res.Result != nil {
			created += res.Result.BracketsCreated
		}
	}
	h.requestLogger(r).Info("batch synthesis finished", slog.Int("competitions", len(results)), slog.Int("brackets_created", created))

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// requestLogger tags log lines with the authenticated user when there is one.
func (h *SynthesisHandler) requestLogger(r *http.Request) *slog.Logger {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		return h.logger
	}
	return h.logger.With(slog.Int("user_id", userID))
}

func (h *SynthesisHandler) Diagnose(w http.ResponseWriter, r *http.Request) {
	competitionID, err := getIDFromURL(r, "competitionID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	reasons, err := h.synthesisService.DiagnoseEmptyCompetition(r.Context(), competitionID, h.defaults)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"reasons": reasons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
