package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/echotools/groupseed/seeding"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
)

// DistributeRequest carries either a ranked player pool or rated entries to
// be ranked by ordinal. Settings default to the live settings.
type DistributeRequest struct {
	Settings *DistributionSettings `json:"settings,omitempty"`
	Players  []seeding.Player      `json:"players,omitempty"`
	Entries  []RatedEntry          `json:"entries,omitempty" validate:"dive"`
	Seed     *uint64               `json:"seed,omitempty"`
}

// Pool returns the engine input for the request.
func (req *DistributeRequest) Pool() ([]seeding.Player, error) {
	if len(req.Players) > 0 && len(req.Entries) > 0 {
		return nil, ErrAmbiguousPool
	}
	pool := req.Players
	if len(req.Entries) > 0 {
		if err := settingsValidate.Struct(req); err != nil {
			return nil, err
		}
		pool = RankPool(req.Entries)
	}
	if err := ValidatePool(pool); err != nil {
		return nil, err
	}
	return pool, nil
}

// Options returns the engine options requested by the caller.
func (req *DistributeRequest) Options() []seeding.Option {
	if req.Seed == nil {
		return nil
	}
	return []seeding.Option{seeding.WithRand(SeededRand(*req.Seed))}
}

func (s *ApiServer) distribute(w http.ResponseWriter, r *http.Request) (int, error) {
	req := &DistributeRequest{}
	if err := decodeJSON(r, req); err != nil {
		return 0, err
	}

	settings := req.Settings
	if settings == nil {
		if settings = DistributionSettingsGet(); settings == nil {
			return 0, withStatus(http.StatusServiceUnavailable, ErrSettingsNotReady)
		}
	} else {
		settings.SetDefaults()
		if err := settings.Validate(); err != nil {
			return 0, withStatus(http.StatusBadRequest, fmt.Errorf("invalid settings: %w", err))
		}
	}

	pool, err := req.Pool()
	if err != nil {
		var validationErrs validator.ValidationErrors
		if errors.Is(err, ErrAmbiguousPool) || errors.Is(err, ErrMissingPlayerID) || errors.Is(err, ErrDuplicatePlayer) || errors.As(err, &validationErrs) {
			return 0, withStatus(http.StatusBadRequest, err)
		}
		return 0, err
	}

	runID, err := uuid.NewV4()
	if err != nil {
		return 0, fmt.Errorf("failed to generate run id: %w", err)
	}
	logger := s.logger.With(zap.String("run_id", runID.String()))

	result := RunDistribution(logger, s.metrics, settings, pool, req.Options()...)

	resp := NewDistributeResponse(runID, result, req.Entries)
	if req.Seed != nil {
		resp.Deterministic = true
	}
	writeJSON(w, http.StatusOK, resp)
	return http.StatusOK, nil
}

func (s *ApiServer) getSettings(w http.ResponseWriter, _ *http.Request) (int, error) {
	settings := DistributionSettingsGet()
	if settings == nil {
		return 0, withStatus(http.StatusNotFound, ErrSettingsNotReady)
	}
	writeJSON(w, http.StatusOK, settings)
	return http.StatusOK, nil
}

func (s *ApiServer) putSettings(w http.ResponseWriter, r *http.Request) (int, error) {
	settings := &DistributionSettings{}
	if err := decodeJSON(r, settings); err != nil {
		return 0, err
	}
	settings.SetDefaults()
	if err := settings.Validate(); err != nil {
		return 0, withStatus(http.StatusBadRequest, fmt.Errorf("invalid settings: %w", err))
	}

	DistributionSettingsSet(settings)
	if s.metrics != nil {
		s.metrics.SettingsUpdated()
	}
	s.logger.Info("Distribution settings updated",
		zap.Int("tiers", len(settings.Tiers)),
		zap.String("strategy", settings.Strategy))

	writeJSON(w, http.StatusOK, settings)
	return http.StatusOK, nil
}
