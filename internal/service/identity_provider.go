package service

import (
	"context"

	"github.com/wardenhq/warden/internal/models"
)

type identityRegistry interface {
	FindUserByIdentity(identity string) (*models.WalletUser, bool)
}

// RegistryIdentityProvider resolves group membership from the wallet user
// registry: an identity belongs to a group when an active wallet user controls
// the identity and lists the group.
type RegistryIdentityProvider struct {
	registry identityRegistry
}

// NewRegistryIdentityProvider constructs the provider.
func NewRegistryIdentityProvider(registry identityRegistry) *RegistryIdentityProvider {
	return &RegistryIdentityProvider{registry: registry}
}

// IsMember implements gateway.IdentityProvider.
func (p *RegistryIdentityProvider) IsMember(ctx context.Context, identity, group string) (bool, error) {
	user, ok := p.registry.FindUserByIdentity(identity)
	if !ok || user.Status != models.WalletUserActive {
		return false, nil
	}
	for _, candidate := range user.Groups {
		if candidate == group {
			return true, nil
		}
	}
	return false, nil
}
