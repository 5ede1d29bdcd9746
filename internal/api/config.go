package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ledmanager/internal/api/models"
	"github.com/smazurov/ledmanager/internal/groups"
	"github.com/smazurov/ledmanager/internal/ledconfig"
)

func (s *Server) registerConfigRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-config-status",
		Method:      http.MethodGet,
		Path:        "/api/config",
		Summary:     "Config Status",
		Description: "Get the state of the group service and the active configuration source",
		Tags:        []string{"config"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.ConfigStatusResponse, error) {
		return &models.ConfigStatusResponse{Body: toConfigStatus(s.options.Groups.Status())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "validate-config",
		Method:      http.MethodPost,
		Path:        "/api/config/validate",
		Summary:     "Validate Config",
		Description: "Validate a configuration document without applying it",
		Tags:        []string{"config"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 422},
	}, func(_ context.Context, input *models.ValidateRequest) (*models.ValidateResponse, error) {
		format, ok := ledconfig.ParseFormat(input.Format)
		if !ok {
			return nil, huma.Error400BadRequest("Unknown document format: " + input.Format)
		}

		parsed, err := s.options.Groups.Validate(input.RawBody, format, "request")
		if err != nil {
			return nil, loadError("Invalid configuration", err)
		}

		return &models.ValidateResponse{
			Body: models.ValidateData{
				Valid:  true,
				Groups: len(parsed),
				LEDs:   len(parsed.LEDs()),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "reload-config",
		Method:      http.MethodPost,
		Path:        "/api/config/reload",
		Summary:     "Reload Config",
		Description: "Reload the configuration from its current source. On failure the previous groups stay active",
		Tags:        []string{"config"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(ctx context.Context, _ *struct{}) (*models.ConfigStatusResponse, error) {
		if err := s.options.Groups.Reload(ctx); err != nil {
			return nil, loadError("Reload failed", err)
		}
		return &models.ConfigStatusResponse{Body: toConfigStatus(s.options.Groups.Status())}, nil
	})
}

// loadError maps a load failure to a 422 carrying the error kind.
func loadError(msg string, err error) error {
	var loadErr *ledconfig.LoadError
	location := "body"
	if errors.As(err, &loadErr) && loadErr.Path != "request" {
		location = loadErr.Path
	}

	return huma.Error422UnprocessableEntity(msg, &huma.ErrorDetail{
		Message:  err.Error(),
		Location: location,
		Value:    ledconfig.Kind(err),
	})
}

func toConfigStatus(st groups.Status) models.ConfigStatusData {
	data := models.ConfigStatusData{
		State:         st.State.String(),
		Source:        st.Source,
		Groups:        st.Groups,
		LEDs:          st.LEDs,
		LastError:     st.LastError,
		LastErrorKind: st.LastErrorKind,
	}
	if !st.LoadedAt.IsZero() {
		loadedAt := st.LoadedAt
		data.LoadedAt = &loadedAt
	}
	return data
}
