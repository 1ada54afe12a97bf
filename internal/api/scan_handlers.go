package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/gamevaultapp/gamevault-server/internal/errors"
)

func (s *Server) registerScanRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "triggerScan",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/scan",
		Summary:     "Scan library",
		Description: "Walks the library root and reconciles the catalog with the files on disk",
		Tags:        []string{"Library"},
	}, s.handleTriggerScan)
}

// === DTOs ===

type ScanResponse struct {
	New      int `json:"new" doc:"Games discovered"`
	Updated  int `json:"updated" doc:"Games whose file changed"`
	Restored int `json:"restored" doc:"Soft-deleted games whose file returned"`
	Missing  int `json:"missing" doc:"Games whose file disappeared"`
	Total    int `json:"total" doc:"Live games after the pass"`
}

type ScanOutput struct {
	Body ScanResponse
}

// === Handlers ===

func (s *Server) handleTriggerScan(ctx context.Context, _ *struct{}) (*ScanOutput, error) {
	if s.scanner == nil {
		return nil, domainerrors.Conflict("no game library is configured")
	}

	result, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Error("Library scan failed", "error", err)
		return nil, err
	}

	if s.index != nil {
		if err := s.index.IndexGames(result.Games); err != nil {
			s.logger.Warn("Failed to reindex after scan", "error", err)
		}
		for _, gameID := range result.RemovedIDs {
			if err := s.index.RemoveGame(gameID); err != nil {
				s.logger.Warn("Failed to deindex removed game", "game_id", gameID, "error", err)
			}
		}
	}

	return &ScanOutput{
		Body: ScanResponse{
			New:      result.New,
			Updated:  result.Updated,
			Restored: result.Restored,
			Missing:  result.Missing,
			Total:    len(result.Games),
		},
	}, nil
}
