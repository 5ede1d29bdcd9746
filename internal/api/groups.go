package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/ledmanager/internal/api/models"
	"github.com/smazurov/ledmanager/internal/layout"
)

func (s *Server) registerGroupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-groups",
		Method:      http.MethodGet,
		Path:        "/api/groups",
		Summary:     "List Groups",
		Description: "List all LED groups of the active configuration with their members",
		Tags:        []string{"groups"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.GroupsResponse, error) {
		current := s.options.Groups.Current()
		list := make([]models.GroupData, 0, len(current))
		for _, path := range current.Paths() {
			list = append(list, toGroupData(path, current[path]))
		}
		return &models.GroupsResponse{
			Body: models.GroupsData{Groups: list, Count: len(list)},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-group",
		Method:      http.MethodGet,
		Path:        "/api/groups/{name}",
		Summary:     "Get Group",
		Description: "Get one LED group by name",
		Tags:        []string{"groups"},
		Security:    withAuth(),
		Errors:      []int{401, 404},
	}, func(_ context.Context, input *models.GroupRequest) (*models.GroupResponse, error) {
		path, actions, ok := s.options.Groups.Group(input.Name)
		if !ok {
			return nil, huma.Error404NotFound("Group not found: " + input.Name)
		}
		return &models.GroupResponse{Body: toGroupData(path, actions)}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "list-leds",
		Method:      http.MethodGet,
		Path:        "/api/leds",
		Summary:     "List LEDs",
		Description: "List every LED with its priority and the groups that contain it",
		Tags:        []string{"groups"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.LEDsResponse, error) {
		leds := s.options.Groups.Current().LEDs()
		return &models.LEDsResponse{
			Body: models.LEDsData{LEDs: leds, Count: len(leds)},
		}, nil
	})
}

func toGroupData(path string, actions layout.ActionSet) models.GroupData {
	return models.GroupData{
		Name:    layout.GroupName(path),
		Path:    path,
		Members: actions.Sorted(),
	}
}
