package models

// Resource identifies the kind of entity a call or operation acts on.
type Resource string

const (
	ResourceRequest        Resource = "REQUEST"
	ResourceTransfer       Resource = "TRANSFER"
	ResourceAccount        Resource = "ACCOUNT"
	ResourceUser           Resource = "USER"
	ResourceUserGroup      Resource = "USER_GROUP"
	ResourceUpgrade        Resource = "UPGRADE"
	ResourceAccessPolicy   Resource = "ACCESS_POLICY"
	ResourceProposalPolicy Resource = "PROPOSAL_POLICY"
)

// Action is the verb an access policy gates.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionRead   Action = "READ"
	ActionVote   Action = "VOTE"
)

// AccessPolicy is an allow-list rule for a resource/action pair. A caller is
// allowed when directly listed or when a member of any listed group.
type AccessPolicy struct {
	ID            string   `json:"id"`
	Resource      Resource `json:"resource"`
	Action        Action   `json:"action"`
	AllowedUsers  []string `json:"allowed_users,omitempty"`
	AllowedGroups []string `json:"allowed_groups,omitempty"`
}

// QuorumVerdict is the outcome of folding a vote sequence against a rule.
type QuorumVerdict string

const (
	QuorumPending       QuorumVerdict = "PENDING"
	QuorumSatisfied     QuorumVerdict = "SATISFIED"
	QuorumUnsatisfiable QuorumVerdict = "UNSATISFIABLE"
)

// QuorumRule states how many approvals adopt a request and from whom. When
// Approvers is set the rule is a fixed named set (unanimity is MinApprovals ==
// len(Approvers)); when ApproverGroup is set membership is resolved through the
// identity provider and unsatisfiability can only come from a veto, since the
// group extent is not enumerable through the membership contract.
type QuorumRule struct {
	Approvers     []string `json:"approvers,omitempty"`
	ApproverGroup string   `json:"approver_group,omitempty"`
	MinApprovals  int      `json:"min_approvals"`
	VetoOnReject  bool     `json:"veto_on_reject,omitempty"`
}

// ProposalPolicy binds a quorum rule to an operation type.
type ProposalPolicy struct {
	ID            string        `json:"id"`
	OperationType OperationType `json:"operation_type"`
	Rule          QuorumRule    `json:"rule"`
}
