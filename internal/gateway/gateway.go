package gateway

import "context"

// External collaborators the engine depends on. The engine only sees these
// narrow contracts; concrete adapters (ledger clients, unit management APIs)
// live outside this repository.

// IdentityProvider resolves group membership for governance identities.
type IdentityProvider interface {
	IsMember(ctx context.Context, identity, group string) (bool, error)
}

// TransferGateway submits an adopted transfer to the underlying ledger.
type TransferGateway interface {
	SubmitTransfer(ctx context.Context, accountID, to, amount, fee string, metadata map[string]string) (txRef string, err error)
}

// UnitManager drives the privileged lifecycle of a target unit.
type UnitManager interface {
	InstallCode(ctx context.Context, target string, module, arg []byte) error
	Stop(ctx context.Context, target string) error
	Start(ctx context.Context, target string) error
	GetControllers(ctx context.Context, target string) ([]string, error)
}
