package engine

import (
	"context"
	"strings"
	"time"

	"github.com/Framerrr/Framerr-app-sub000/pkg/models"
)

// IdentityStore is the persistence needed by the identity resolver.
type IdentityStore interface {
	// FindLinksByService returns every link for (service, externalUsername),
	// matched case-insensitively on the username.
	FindLinksByService(ctx context.Context, service, externalUsername string) ([]models.IdentityLink, error)
	GetLink(ctx context.Context, userID uint, service string) (*models.IdentityLink, error)
	ListLinks(ctx context.Context, userID uint) ([]models.IdentityLink, error)
	SaveLink(ctx context.Context, link *models.IdentityLink) error
	DeleteLink(ctx context.Context, userID uint, service string) error
}

// IdentityResolver maps external usernames, scoped to a named service,
// to internal accounts. Resolution fails closed: an ambiguous match is
// reported as unmatched rather than guessed, because delivering a
// personal notification to the wrong account is worse than not
// delivering it.
type IdentityResolver struct {
	store IdentityStore
}

// NewIdentityResolver creates an identity resolver backed by store.
func NewIdentityResolver(store IdentityStore) *IdentityResolver {
	return &IdentityResolver{store: store}
}

// Resolve returns the internal user id for (service, externalUsername).
// The second return is false when no link matches or when links from
// more than one user match.
func (r *IdentityResolver) Resolve(ctx context.Context, service, externalUsername string) (uint, bool, error) {
	externalUsername = strings.TrimSpace(externalUsername)
	if service == "" || externalUsername == "" {
		return 0, false, nil
	}

	links, err := r.store.FindLinksByService(ctx, service, externalUsername)
	if err != nil {
		return 0, false, err
	}

	var userID uint
	for _, link := range links {
		if userID != 0 && link.UserID != userID {
			// Ambiguous across users
			return 0, false, nil
		}
		userID = link.UserID
	}

	if userID == 0 {
		return 0, false, nil
	}
	return userID, true, nil
}

// Link upserts an identity link for (userID, service). An SSO link is
// authoritative: it overwrites a prior manual link, while a manual
// link cannot replace an existing SSO link (ErrLinkManaged).
func (r *IdentityResolver) Link(ctx context.Context, userID uint, service, externalUsername, externalEmail string, method models.LinkMethod) error {
	externalUsername = strings.TrimSpace(externalUsername)

	existing, err := r.store.GetLink(ctx, userID, service)
	if err != nil && err != ErrNotFound {
		return err
	}

	if existing != nil && existing.Method == models.LinkMethodSSO && method == models.LinkMethodManual {
		return ErrLinkManaged
	}

	link := &models.IdentityLink{
		UserID:           userID,
		Service:          service,
		ExternalUsername: externalUsername,
		ExternalEmail:    externalEmail,
		Method:           method,
		LinkedAt:         time.Now().UTC(),
	}
	if existing != nil {
		link.ID = existing.ID
	}

	return r.store.SaveLink(ctx, link)
}

// Unlink removes the user's own link for a service. SSO-managed links
// are refused; those are mutated only by the SSO login flow or an
// administrator.
func (r *IdentityResolver) Unlink(ctx context.Context, userID uint, service string) error {
	existing, err := r.store.GetLink(ctx, userID, service)
	if err != nil {
		return err
	}
	if existing.Method == models.LinkMethodSSO {
		return ErrLinkManaged
	}
	return r.store.DeleteLink(ctx, userID, service)
}

// AdminUnlink removes a link regardless of method.
func (r *IdentityResolver) AdminUnlink(ctx context.Context, userID uint, service string) error {
	if _, err := r.store.GetLink(ctx, userID, service); err != nil {
		return err
	}
	return r.store.DeleteLink(ctx, userID, service)
}

// Links returns all identity links for a user.
func (r *IdentityResolver) Links(ctx context.Context, userID uint) ([]models.IdentityLink, error) {
	return r.store.ListLinks(ctx, userID)
}
