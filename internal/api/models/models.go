// Package models defines the request and response bodies of the HTTP API.
package models

import (
	"time"

	"github.com/smazurov/ledmanager/internal/layout"
	"github.com/smazurov/ledmanager/internal/version"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
	State   string `json:"state" example:"healthy" doc:"Group service state"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionResponse struct {
	Body version.Info
}

// Group models
type GroupData struct {
	Name    string             `json:"name" example:"enclosure_identify" doc:"Group name, the last element of the path"`
	Path    string             `json:"path" example:"/xyz/openbmc_project/led/groups/enclosure_identify" doc:"Group object path"`
	Members []layout.LedAction `json:"members" doc:"LED actions of the group, sorted by name"`
}

type GroupsData struct {
	Groups []GroupData `json:"groups" doc:"All groups sorted by path"`
	Count  int         `json:"count" example:"4" doc:"Number of groups"`
}

type GroupsResponse struct {
	Body GroupsData
}

type GroupRequest struct {
	Name string `path:"name" example:"enclosure_identify" doc:"Group name"`
}

type GroupResponse struct {
	Body GroupData
}

// LED models
type LEDsData struct {
	LEDs  []layout.LEDInfo `json:"leds" doc:"Distinct LEDs sorted by name"`
	Count int              `json:"count" example:"6" doc:"Number of LEDs"`
}

type LEDsResponse struct {
	Body LEDsData
}

// Config models
type ConfigStatusData struct {
	State         string     `json:"state" example:"healthy" enum:"loading,healthy,degraded,empty" doc:"Group service state"`
	Source        string     `json:"source,omitempty" example:"/usr/share/phosphor-led-manager/led-group-config.json" doc:"Configuration source path"`
	LoadedAt      *time.Time `json:"loaded_at,omitempty" doc:"Time of the last successful load"`
	Groups        int        `json:"groups" example:"4" doc:"Number of active groups"`
	LEDs          int        `json:"leds" example:"6" doc:"Number of active LEDs"`
	LastError     string     `json:"last_error,omitempty" doc:"Error of the last failed load"`
	LastErrorKind string     `json:"last_error_kind,omitempty" example:"priority_conflict" doc:"Kind of the last error"`
}

type ConfigStatusResponse struct {
	Body ConfigStatusData
}

type ValidateRequest struct {
	Format  string `query:"format" example:"yaml" doc:"Document format: json, yaml or toml. Detected from content when omitted"`
	RawBody []byte
}

type ValidateData struct {
	Valid  bool `json:"valid" example:"true" doc:"Whether the document is valid"`
	Groups int  `json:"groups" example:"4" doc:"Number of groups in the document"`
	LEDs   int  `json:"leds" example:"6" doc:"Number of distinct LEDs in the document"`
}

type ValidateResponse struct {
	Body ValidateData
}
