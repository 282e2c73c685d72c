package services

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jakechorley/watchtower/pkg/core/model"
	"github.com/jakechorley/watchtower/pkg/export"
)

// ExportRoster writes a roster period as an XLSX workbook to w
func ExportRoster(ctx context.Context, store RosterViewStore, logger *zap.Logger, id string, w io.Writer) (*model.RosterPeriod, error) {
	logger.Debug("Starting exportRoster", zap.String("roster_id", id))

	roster, err := store.GetRoster(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster: %w", err)
	}

	members, err := store.GetMembers(ctx, roster.Station)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch members: %w", err)
	}

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	if err := export.WriteRoster(w, roster, names); err != nil {
		return nil, fmt.Errorf("failed to export roster: %w", err)
	}

	logger.Info("Roster exported",
		zap.String("roster_id", roster.ID),
		zap.Int("assignments", len(roster.Assignments)))

	return roster, nil
}
