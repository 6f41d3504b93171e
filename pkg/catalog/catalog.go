// Package catalog holds the static per-integration-type definitions the
// notification engine validates against: the fixed set of event
// identifiers an integration type can emit, the service name that
// scopes identity resolution, and the payload field carrying the
// external actor's username.
package catalog

import (
	"fmt"
	"sort"
)

// Definition describes one integration type.
type Definition struct {
	Type        string
	DisplayName string

	// Events is the full catalog of event identifiers for this type.
	Events []string

	// IdentityService names the service identity links are scoped to
	// when resolving this type's events. Empty means events of this
	// type are never personalized.
	IdentityService string

	// IdentityField is the payload field that carries the external
	// actor's username on inbound events.
	IdentityField string
}

var definitions = map[string]Definition{
	"overseerr": {
		Type:            "overseerr",
		DisplayName:     "Overseerr",
		IdentityService: "overseerr",
		IdentityField:   "requestedBy_username",
		Events: []string{
			"request.pending",
			"request.approved",
			"request.declined",
			"request.available",
			"request.failed",
			"issue.created",
			"issue.resolved",
			"issue.comment",
		},
	},
	"jellyseerr": {
		Type:            "jellyseerr",
		DisplayName:     "Jellyseerr",
		IdentityService: "jellyseerr",
		IdentityField:   "requestedBy_username",
		Events: []string{
			"request.pending",
			"request.approved",
			"request.declined",
			"request.available",
			"request.failed",
			"issue.created",
			"issue.resolved",
			"issue.comment",
		},
	},
	"sonarr": {
		Type:          "sonarr",
		DisplayName:   "Sonarr",
		IdentityField: "",
		Events: []string{
			"episode.grabbed",
			"episode.imported",
			"episode.upgraded",
			"series.added",
			"series.deleted",
			"health.issue",
			"health.restored",
		},
	},
	"radarr": {
		Type:          "radarr",
		DisplayName:   "Radarr",
		IdentityField: "",
		Events: []string{
			"movie.grabbed",
			"movie.imported",
			"movie.upgraded",
			"movie.added",
			"movie.deleted",
			"health.issue",
			"health.restored",
		},
	},
	"tautulli": {
		Type:            "tautulli",
		DisplayName:     "Tautulli",
		IdentityService: "plex",
		IdentityField:   "username",
		Events: []string{
			"playback.start",
			"playback.stop",
			"playback.pause",
			"playback.resume",
			"transcode.decision",
			"user.new_device",
			"server.down",
			"server.up",
		},
	},
	"webhook": {
		Type:            "webhook",
		DisplayName:     "Generic Webhook",
		IdentityService: "webhook",
		IdentityField:   "username",
		Events: []string{
			"generic.info",
			"generic.warning",
			"generic.error",
		},
	},
}

// Lookup returns the definition for an integration type.
func Lookup(integrationType string) (Definition, error) {
	def, ok := definitions[integrationType]
	if !ok {
		return Definition{}, fmt.Errorf("unknown integration type: %s", integrationType)
	}
	return def, nil
}

// Types returns all known integration type names, sorted.
func Types() []string {
	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownIdentityService reports whether any integration type resolves
// identities against service. Manual links are only accepted for
// services something can actually match on.
func KnownIdentityService(service string) bool {
	for _, def := range definitions {
		if def.IdentityService != "" && def.IdentityService == service {
			return true
		}
	}
	return false
}

// IdentityServices returns the distinct identity service names, sorted.
func IdentityServices() []string {
	seen := map[string]struct{}{}
	for _, def := range definitions {
		if def.IdentityService != "" {
			seen[def.IdentityService] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasEvent reports whether event is in the catalog for integrationType.
func HasEvent(integrationType, event string) bool {
	def, ok := definitions[integrationType]
	if !ok {
		return false
	}
	for _, e := range def.Events {
		if e == event {
			return true
		}
	}
	return false
}

// ValidateEvents returns the first event id not present in the catalog
// for integrationType, or "" when all are valid.
func ValidateEvents(integrationType string, events []string) string {
	for _, e := range events {
		if !HasEvent(integrationType, e) {
			return e
		}
	}
	return ""
}
