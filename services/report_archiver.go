package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/fightclub-brackets/models"
	"github.com/Dosada05/fightclub-brackets/storage"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

// ReportArchiver stores a synthesis result and returns where it can be read.
type ReportArchiver interface {
	Archive(ctx context.Context, competition *models.Competition, result *SynthesisResult) (string, error)
	// Discard removes the report a run archived earlier.
	Discard(ctx context.Context, competition *models.Competition, runID uuid.UUID) error
}

type reportArchiver struct {
	uploader storage.FileUploader
}

func NewReportArchiver(uploader storage.FileUploader) ReportArchiver {
	return &reportArchiver{uploader: uploader}
}

func (a *reportArchiver) Archive(ctx context.Context, competition *models.Competition, result *SynthesisResult) (string, error) {
	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode synthesis report: %w", err)
	}
	key := ReportKey(competition, result.RunID)
	uploaded, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	return uploaded.Location, nil
}

func (a *reportArchiver) Discard(ctx context.Context, competition *models.Competition, runID uuid.UUID) error {
	if err := a.uploader.Delete(ctx, ReportKey(competition, runID)); err != nil {
		return fmt.Errorf("failed to discard synthesis report %s: %w", runID, err)
	}
	return nil
}

// ReportKey is synthesis/{competition-slug}/{runId}.json. Competitions whose
// name slugs to nothing fall back to competition-{id}.
func ReportKey(competition *models.Competition, runID uuid.UUID) string {
	name := slug.Make(competition.Name)
	if name == "" {
		name = fmt.Sprintf("competition-%d", competition.ID)
	}
	return fmt.Sprintf("synthesis/%s/%s.json", name, runID)
}
