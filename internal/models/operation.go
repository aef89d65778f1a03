package models

import appErrors "github.com/wardenhq/warden/pkg/errors"

// OperationType enumerates the supported change kinds.
type OperationType string

const (
	OperationTypeTransfer             OperationType = "TRANSFER"
	OperationTypeAddAccount           OperationType = "ADD_ACCOUNT"
	OperationTypeEditAccount          OperationType = "EDIT_ACCOUNT"
	OperationTypeAddUser              OperationType = "ADD_USER"
	OperationTypeEditUser             OperationType = "EDIT_USER"
	OperationTypeAddUserGroup         OperationType = "ADD_USER_GROUP"
	OperationTypeEditUserGroup        OperationType = "EDIT_USER_GROUP"
	OperationTypeRemoveUserGroup      OperationType = "REMOVE_USER_GROUP"
	OperationTypeUpgrade              OperationType = "UPGRADE"
	OperationTypeAddAccessPolicy      OperationType = "ADD_ACCESS_POLICY"
	OperationTypeEditAccessPolicy     OperationType = "EDIT_ACCESS_POLICY"
	OperationTypeRemoveAccessPolicy   OperationType = "REMOVE_ACCESS_POLICY"
	OperationTypeAddProposalPolicy    OperationType = "ADD_PROPOSAL_POLICY"
	OperationTypeEditProposalPolicy   OperationType = "EDIT_PROPOSAL_POLICY"
	OperationTypeRemoveProposalPolicy OperationType = "REMOVE_PROPOSAL_POLICY"
)

// Operation is the tagged union over change kinds. Exactly one variant must be
// set; the populated variant determines the operation type and the resource the
// request is authorized against.
type Operation struct {
	Transfer             *TransferOperation             `json:"transfer,omitempty"`
	AddAccount           *AddAccountOperation           `json:"add_account,omitempty"`
	EditAccount          *EditAccountOperation          `json:"edit_account,omitempty"`
	AddUser              *AddUserOperation              `json:"add_user,omitempty"`
	EditUser             *EditUserOperation             `json:"edit_user,omitempty"`
	AddUserGroup         *AddUserGroupOperation         `json:"add_user_group,omitempty"`
	EditUserGroup        *EditUserGroupOperation        `json:"edit_user_group,omitempty"`
	RemoveUserGroup      *RemoveUserGroupOperation      `json:"remove_user_group,omitempty"`
	Upgrade              *UpgradeOperation              `json:"upgrade,omitempty"`
	AddAccessPolicy      *AddAccessPolicyOperation      `json:"add_access_policy,omitempty"`
	EditAccessPolicy     *EditAccessPolicyOperation     `json:"edit_access_policy,omitempty"`
	RemoveAccessPolicy   *RemoveAccessPolicyOperation   `json:"remove_access_policy,omitempty"`
	AddProposalPolicy    *AddProposalPolicyOperation    `json:"add_proposal_policy,omitempty"`
	EditProposalPolicy   *EditProposalPolicyOperation   `json:"edit_proposal_policy,omitempty"`
	RemoveProposalPolicy *RemoveProposalPolicyOperation `json:"remove_proposal_policy,omitempty"`
}

// TransferOperation moves funds out of a custody account.
type TransferOperation struct {
	AccountID string            `json:"account_id"`
	To        string            `json:"to"`
	Amount    string            `json:"amount"`
	Fee       string            `json:"fee,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// AddAccountOperation registers a new custody account.
type AddAccountOperation struct {
	Name       string   `json:"name"`
	Blockchain string   `json:"blockchain"`
	Symbol     string   `json:"symbol"`
	Owners     []string `json:"owners"`
}

// EditAccountOperation updates mutable account attributes.
type EditAccountOperation struct {
	AccountID string    `json:"account_id"`
	Name      *string   `json:"name,omitempty"`
	Owners    *[]string `json:"owners,omitempty"`
}

// AddUserOperation registers a wallet user.
type AddUserOperation struct {
	Name       string   `json:"name"`
	Identities []string `json:"identities"`
	Groups     []string `json:"groups,omitempty"`
}

// EditUserOperation updates a wallet user.
type EditUserOperation struct {
	UserID     string    `json:"user_id"`
	Name       *string   `json:"name,omitempty"`
	Identities *[]string `json:"identities,omitempty"`
	Groups     *[]string `json:"groups,omitempty"`
}

// AddUserGroupOperation creates a user group.
type AddUserGroupOperation struct {
	Name string `json:"name"`
}

// EditUserGroupOperation renames a user group.
type EditUserGroupOperation struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name"`
}

// RemoveUserGroupOperation deletes a user group.
type RemoveUserGroupOperation struct {
	GroupID string `json:"group_id"`
}

// UpgradeOperation installs new code into the target unit. Checksum is the
// hex-encoded sha256 digest the module payload must match.
type UpgradeOperation struct {
	Target   string `json:"target"`
	Module   []byte `json:"module"`
	Arg      []byte `json:"arg,omitempty"`
	Checksum string `json:"checksum"`
}

// AddAccessPolicyOperation installs a new access policy.
type AddAccessPolicyOperation struct {
	Policy AccessPolicy `json:"policy"`
}

// EditAccessPolicyOperation replaces an existing access policy.
type EditAccessPolicyOperation struct {
	PolicyID string       `json:"policy_id"`
	Policy   AccessPolicy `json:"policy"`
}

// RemoveAccessPolicyOperation deletes an access policy.
type RemoveAccessPolicyOperation struct {
	PolicyID string `json:"policy_id"`
}

// AddProposalPolicyOperation installs a quorum rule for an operation type.
type AddProposalPolicyOperation struct {
	Policy ProposalPolicy `json:"policy"`
}

// EditProposalPolicyOperation replaces an existing quorum rule.
type EditProposalPolicyOperation struct {
	PolicyID string         `json:"policy_id"`
	Policy   ProposalPolicy `json:"policy"`
}

// RemoveProposalPolicyOperation deletes a quorum rule.
type RemoveProposalPolicyOperation struct {
	PolicyID string `json:"policy_id"`
}

// Type resolves the populated variant. Exactly one variant must be set.
func (o Operation) Type() (OperationType, error) {
	var (
		found OperationType
		count int
	)
	for _, candidate := range []struct {
		set bool
		t   OperationType
	}{
		{o.Transfer != nil, OperationTypeTransfer},
		{o.AddAccount != nil, OperationTypeAddAccount},
		{o.EditAccount != nil, OperationTypeEditAccount},
		{o.AddUser != nil, OperationTypeAddUser},
		{o.EditUser != nil, OperationTypeEditUser},
		{o.AddUserGroup != nil, OperationTypeAddUserGroup},
		{o.EditUserGroup != nil, OperationTypeEditUserGroup},
		{o.RemoveUserGroup != nil, OperationTypeRemoveUserGroup},
		{o.Upgrade != nil, OperationTypeUpgrade},
		{o.AddAccessPolicy != nil, OperationTypeAddAccessPolicy},
		{o.EditAccessPolicy != nil, OperationTypeEditAccessPolicy},
		{o.RemoveAccessPolicy != nil, OperationTypeRemoveAccessPolicy},
		{o.AddProposalPolicy != nil, OperationTypeAddProposalPolicy},
		{o.EditProposalPolicy != nil, OperationTypeEditProposalPolicy},
		{o.RemoveProposalPolicy != nil, OperationTypeRemoveProposalPolicy},
	} {
		if candidate.set {
			found = candidate.t
			count++
		}
	}
	if count != 1 {
		return "", appErrors.Clone(appErrors.ErrValidation, "operation must carry exactly one variant")
	}
	return found, nil
}

// Resource maps the operation to the resource descriptor used by access checks.
func (t OperationType) Resource() Resource {
	switch t {
	case OperationTypeTransfer:
		return ResourceTransfer
	case OperationTypeAddAccount, OperationTypeEditAccount:
		return ResourceAccount
	case OperationTypeAddUser, OperationTypeEditUser:
		return ResourceUser
	case OperationTypeAddUserGroup, OperationTypeEditUserGroup, OperationTypeRemoveUserGroup:
		return ResourceUserGroup
	case OperationTypeUpgrade:
		return ResourceUpgrade
	case OperationTypeAddAccessPolicy, OperationTypeEditAccessPolicy, OperationTypeRemoveAccessPolicy:
		return ResourceAccessPolicy
	case OperationTypeAddProposalPolicy, OperationTypeEditProposalPolicy, OperationTypeRemoveProposalPolicy:
		return ResourceProposalPolicy
	default:
		return Resource(string(t))
	}
}

// AccountID returns the custody account the operation targets, when any.
func (o Operation) AccountID() string {
	switch {
	case o.Transfer != nil:
		return o.Transfer.AccountID
	case o.EditAccount != nil:
		return o.EditAccount.AccountID
	default:
		return ""
	}
}

// TargetUserID returns the wallet user the operation targets, when any.
func (o Operation) TargetUserID() string {
	if o.EditUser != nil {
		return o.EditUser.UserID
	}
	return ""
}
