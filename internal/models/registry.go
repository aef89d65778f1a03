package models

import "time"

// Account is a custody account managed through governance requests.
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Blockchain string    `json:"blockchain"`
	Symbol     string    `json:"symbol"`
	Owners     []string  `json:"owners"`
	CreatedAt  time.Time `json:"created_at"`
}

// WalletUserStatus marks whether a wallet user may act.
type WalletUserStatus string

const (
	WalletUserActive   WalletUserStatus = "ACTIVE"
	WalletUserInactive WalletUserStatus = "INACTIVE"
)

// WalletUser is a governed party: the identities it controls and the groups it
// belongs to feed the access and quorum evaluations.
type WalletUser struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Identities []string         `json:"identities"`
	Groups     []string         `json:"groups,omitempty"`
	Status     WalletUserStatus `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
}

// UserGroup names a set of wallet users referenced by policies.
type UserGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
