package engine

import (
	"context"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// ShareRule is the visibility policy of one integration. Groups and
// Users are meaningful only under their respective modes; an empty set
// under ShareGroups or ShareUsers hides the integration like ShareNone
// but is stored distinctly so the UI can show "mode selected, nothing
// chosen yet".
type ShareRule struct {
	Mode   models.ShareMode `json:"mode"`
	Groups []uint           `json:"groups,omitempty"`
	Users  []uint           `json:"users,omitempty"`
}

// ShareStore is the persistence needed by the share registry.
// Implementations return ErrNotFound for unknown integration keys.
type ShareStore interface {
	GetIntegrationByKey(ctx context.Context, key string) (*models.Integration, error)
	UpdateShareRule(ctx context.Context, key string, mode models.ShareMode, groups, users []uint) error
}

// ShareRegistry answers integration visibility questions and stores
// share rules.
type ShareRegistry struct {
	store ShareStore
}

// NewShareRegistry creates a share registry backed by store.
func NewShareRegistry(store ShareStore) *ShareRegistry {
	return &ShareRegistry{store: store}
}

// IsVisible reports whether the integration is visible to the
// principal. Administrators see every integration regardless of rule.
func (r *ShareRegistry) IsVisible(ctx context.Context, key string, p Principal) (bool, error) {
	if p.Admin {
		// Verify the integration exists so unknown keys still surface
		// ErrNotFound instead of a phantom "true".
		if _, err := r.store.GetIntegrationByKey(ctx, key); err != nil {
			return false, err
		}
		return true, nil
	}

	integration, err := r.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return false, err
	}

	return RuleAllows(integration, p), nil
}

// RuleAllows evaluates the stored rule without the administrative
// override. Used by IsVisible and by list filtering in the repository.
func RuleAllows(integration *models.Integration, p Principal) bool {
	switch integration.ShareMode {
	case models.ShareEveryone:
		return true
	case models.ShareGroups:
		for _, g := range integration.ShareGroups {
			if p.InGroup(g) {
				return true
			}
		}
		return false
	case models.ShareUsers:
		return integration.ShareUsers.Contains(p.UserID)
	default:
		return false
	}
}

// Rule returns the stored share rule for an integration.
func (r *ShareRegistry) Rule(ctx context.Context, key string) (ShareRule, error) {
	integration, err := r.store.GetIntegrationByKey(ctx, key)
	if err != nil {
		return ShareRule{}, err
	}

	return ShareRule{
		Mode:   integration.ShareMode,
		Groups: integration.ShareGroups,
		Users:  integration.ShareUsers,
	}, nil
}

// SetRule replaces the share rule atomically. Referenced group and
// user ids are not validated here; that is a caller concern. Empty
// sets are stored as-is.
func (r *ShareRegistry) SetRule(ctx context.Context, key string, rule ShareRule) error {
	switch rule.Mode {
	case models.ShareNone, models.ShareEveryone, models.ShareGroups, models.ShareUsers:
	default:
		return &InvalidShareModeError{Mode: string(rule.Mode)}
	}

	groups := rule.Groups
	users := rule.Users
	if rule.Mode != models.ShareGroups {
		groups = nil
	}
	if rule.Mode != models.ShareUsers {
		users = nil
	}

	return r.store.UpdateShareRule(ctx, key, rule.Mode, groups, users)
}

// InvalidShareModeError reports an unknown share mode.
type InvalidShareModeError struct {
	Mode string
}

func (e *InvalidShareModeError) Error() string {
	return "invalid share mode: " + e.Mode
}
