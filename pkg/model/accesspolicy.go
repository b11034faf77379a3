package model

// ResourceType enumerates the entity types an AccessPolicy can name. The
// set is closed so a policy can never reference a resource kind the
// authorization engine doesn't know how to evaluate.
type ResourceType string

const (
	ResourceFile            ResourceType = "File"
	ResourceFileVersion     ResourceType = "FileVersion"
	ResourceFileGroup       ResourceType = "FileGroup"
	ResourceUserGroup       ResourceType = "UserGroup"
	ResourceUser            ResourceType = "User"
	ResourceApp             ResourceType = "App"
	ResourceStorageLocation ResourceType = "StorageLocation"
	ResourceStorageQuota    ResourceType = "StorageQuota"
	ResourceAccessPolicy    ResourceType = "AccessPolicy"
	ResourceJob             ResourceType = "Job"
	ResourceTag             ResourceType = "Tag"
)

// Action is a closed, per-resource-type verb an AccessPolicy can grant or
// deny. Kept as plain strings (rather than a Go enum-of-consts per type)
// so the HTTP surface can validator-tag an inbound field against the
// oneof set for its ResourceType without a type switch per route.
type Action string

const (
	ActionFilesGet           Action = "FilezFilesGet"
	ActionFilesCreate        Action = "FilezFilesCreate"
	ActionFilesUpdate        Action = "FilezFilesUpdate"
	ActionFilesDelete        Action = "FilezFilesDelete"
	ActionFileVersionsGet           Action = "FilezFileVersionsGet"
	ActionFileVersionsCreate        Action = "FilezFileVersionsCreate"
	ActionFileVersionsContentUpload Action = "FilezFileVersionsContentUpload"
	ActionFileVersionsContentGet    Action = "FilezFileVersionsContentGet"
	ActionFileGroupsGet      Action = "FileGroupsGet"
	ActionFileGroupsCreate   Action = "FileGroupsCreate"
	ActionFileGroupsUpdate   Action = "FileGroupsUpdate"
	ActionFileGroupsDelete   Action = "FileGroupsDelete"
	ActionUserGroupsGet      Action = "UserGroupsGet"
	ActionUserGroupsCreate   Action = "UserGroupsCreate"
	ActionUserGroupsUpdate   Action = "UserGroupsUpdate"
	ActionUserGroupsDelete   Action = "UserGroupsDelete"
	ActionAccessPoliciesGet    Action = "AccessPoliciesGet"
	ActionAccessPoliciesCreate Action = "AccessPoliciesCreate"
	ActionAccessPoliciesUpdate Action = "AccessPoliciesUpdate"
	ActionAccessPoliciesDelete Action = "AccessPoliciesDelete"
	ActionAccessPoliciesCheck  Action = "AccessPoliciesCheck"
	ActionStorageLocationsGet Action = "StorageLocationsGet"
	ActionStorageQuotasGet    Action = "StorageQuotasGet"
	ActionFilezJobsCreate Action = "FilezJobsCreate"
	ActionFilezJobsGet    Action = "FilezJobsGet"
	ActionFilezJobsUpdate Action = "FilezJobsUpdate"
	ActionFilezJobsDelete Action = "FilezJobsDelete"
	ActionFilezJobsPickup Action = "FilezJobsPickup"
)

// SubjectType is who an AccessPolicy applies to.
type SubjectType string

const (
	SubjectUser         SubjectType = "User"
	SubjectUserGroup    SubjectType = "UserGroup"
	SubjectApp          SubjectType = "App"
	SubjectPublic       SubjectType = "Public"
	SubjectServerMember SubjectType = "ServerMember"
)

// Effect is whether a matching AccessPolicy grants or revokes an action.
// Deny always overrides Allow at the same resolution tier (spec §4.3).
type Effect string

const (
	EffectAllow Effect = "Allow"
	EffectDeny  Effect = "Deny"
)

// AccessPolicy is a record (subject, resource, actions, effect) consulted
// by the authorization engine. ResourceID nil means "type-level" — it
// matches every resource of ResourceType instead of one specific row.
type AccessPolicy struct {
	ID           ID
	Name         string
	OwnerID      ID
	SubjectType  SubjectType
	SubjectID    *ID
	ResourceType ResourceType
	ResourceID   *ID
	Actions      []Action
	Effect       Effect
}

// Grants reports whether this policy's Actions set contains action.
func (p AccessPolicy) Grants(action Action) bool {
	for _, a := range p.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Reason identifies which resolution-order rule produced an evaluation's
// outcome, for audit and debugging.
type Reason struct {
	Rule    string
	PolicyID *ID
}

// AuthEvaluation is the per-resource outcome of an authorization check.
// ResourceID nil marks a type-level evaluation, used for create-style
// actions that have no existing resource to check ownership/policy against.
type AuthEvaluation struct {
	ResourceID *ID
	Allowed    bool
	Reasons    []Reason
}

// AuthResult is the full outcome of AccessPolicy.check over one or more
// resources.
type AuthResult struct {
	Evaluations []AuthEvaluation
}

// Verify collapses the result into a single bool: true iff there is at
// least one evaluation and every evaluation is Allow.
func (r AuthResult) Verify() bool {
	if len(r.Evaluations) == 0 {
		return false
	}
	for _, e := range r.Evaluations {
		if !e.Allowed {
			return false
		}
	}
	return true
}

// VerifyAllowTypeLevel additionally accepts a single type-level evaluation
// when the caller passed no resource_ids (spec §4.3).
func (r AuthResult) VerifyAllowTypeLevel() bool {
	if len(r.Evaluations) == 1 && r.Evaluations[0].ResourceID == nil {
		return r.Evaluations[0].Allowed
	}
	return r.Verify()
}
