package accesspolicy

import "github.com/filez-project/filez/pkg/model"

// EvalInput is every input the pure resolution algorithm needs. Building
// one from scratch (no database, no HTTP) is how the property tests in
// evaluate_test.go drive arbitrary synthesized policy sets.
type EvalInput struct {
	User         *model.User // nil for unauthenticated callers
	App          model.App
	Action       model.Action
	ResourceIDs  []model.ID            // empty means a single type-level check
	Owners       map[model.ID]model.ID // resource id -> owner id, for resources that exist
	Policies     []model.AccessPolicy  // every policy matching (resource_type, resource_id ∈ ids ∪ {NULL})
	UserGroupIDs map[model.ID]bool     // groups the user belongs to
}

// Evaluate runs the resolution order of spec §4.3 against an already
// fetched set of policies. It never performs I/O.
func Evaluate(in EvalInput) model.AuthResult {
	if len(in.ResourceIDs) == 0 {
		return model.AuthResult{Evaluations: []model.AuthEvaluation{evalOne(in, nil)}}
	}
	evals := make([]model.AuthEvaluation, len(in.ResourceIDs))
	for i := range in.ResourceIDs {
		id := in.ResourceIDs[i]
		evals[i] = evalOne(in, &id)
	}
	return model.AuthResult{Evaluations: evals}
}

func evalOne(in EvalInput, resourceID *model.ID) model.AuthEvaluation {
	// Rule 1: SuperAdmin shortcut — absolute, skips the untrusted-app gate.
	if in.User != nil && in.User.IsSuperAdmin() {
		return allow(resourceID, Reason("superadmin"))
	}

	matchesSubject := func(p model.AccessPolicy) bool { return subjectMatches(in, p) }

	// Rule 2: ownership.
	if resourceID != nil && in.User != nil {
		if owner, ok := in.Owners[*resourceID]; ok && owner == in.User.ID {
			if eff, fired := resolveTier(in.Policies, resourceID, in.Action, matchesSubject); fired && eff == model.EffectDeny {
				return deny(resourceID, Reason("ownership overridden by deny policy"))
			}
			return gate(in, resourceID, model.EffectAllow, Reason("ownership"))
		}
	}

	// Rule 3: direct policy (exact resource_id match). When resourceID is
	// nil this collapses into the same set rule 4 would match, which is
	// correct: a type-level check has no "direct resource" to distinguish.
	if eff, fired := resolveTier(in.Policies, resourceID, in.Action, matchesSubject); fired {
		return gate(in, resourceID, eff, Reason("direct-policy"))
	}

	// Rule 4: type-level policy (resource_id IS NULL), only distinct from
	// rule 3 when resourceID is non-nil.
	if resourceID != nil {
		if eff, fired := resolveTier(in.Policies, nil, in.Action, matchesSubject); fired {
			return gate(in, resourceID, eff, Reason("type-level-policy"))
		}
	}

	// Rule 7: default deny.
	return deny(resourceID, Reason("default"))
}

// resolveTier filters policies to those matching resourceID exactly and
// subjectMatch, and collapses them to one effect: Deny wins over Allow at
// the same tier (spec §4.3). fired is false when no policy in the tier
// granted the requested action at all.
func resolveTier(policies []model.AccessPolicy, resourceID *model.ID, action model.Action, subjectMatch func(model.AccessPolicy) bool) (effect model.Effect, fired bool) {
	sawAllow := false
	for _, p := range policies {
		if !sameResourceID(p.ResourceID, resourceID) {
			continue
		}
		if !p.Grants(action) {
			continue
		}
		if !subjectMatch(p) {
			continue
		}
		if p.Effect == model.EffectDeny {
			return model.EffectDeny, true
		}
		sawAllow = true
	}
	if sawAllow {
		return model.EffectAllow, true
	}
	return "", false
}

// gate applies rule 6, the untrusted-app gate, to a decision produced by
// ownership or a policy tier. A Deny decision passes through as a deny.
func gate(in EvalInput, resourceID *model.ID, eff model.Effect, reason Reason) model.AuthEvaluation {
	if eff == model.EffectDeny {
		return deny(resourceID, reason)
	}
	if in.App.Trusted {
		return allow(resourceID, reason)
	}
	isAppSubject := func(p model.AccessPolicy) bool {
		return p.SubjectType == model.SubjectApp && p.SubjectID != nil && *p.SubjectID == in.App.ID
	}
	if gateEff, fired := resolveTier(in.Policies, resourceID, in.Action, isAppSubject); fired && gateEff == model.EffectAllow {
		return allow(resourceID, reason, Reason("untrusted-app-gate"))
	}
	if resourceID != nil {
		if gateEff, fired := resolveTier(in.Policies, nil, in.Action, isAppSubject); fired && gateEff == model.EffectAllow {
			return allow(resourceID, reason, Reason("untrusted-app-gate"))
		}
	}
	return deny(resourceID, Reason("untrusted-app-gate"))
}

func subjectMatches(in EvalInput, p model.AccessPolicy) bool {
	switch p.SubjectType {
	case model.SubjectPublic:
		return true
	case model.SubjectServerMember:
		return in.User != nil
	case model.SubjectUser:
		return in.User != nil && p.SubjectID != nil && *p.SubjectID == in.User.ID
	case model.SubjectUserGroup:
		return in.User != nil && p.SubjectID != nil && in.UserGroupIDs[*p.SubjectID]
	case model.SubjectApp:
		return p.SubjectID != nil && *p.SubjectID == in.App.ID
	default:
		return false
	}
}

func sameResourceID(a, b *model.ID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Reason builds a model.Reason carrying only the rule name; used for
// reasons that aren't tied to a specific policy row.
func Reason(rule string) model.Reason { return model.Reason{Rule: rule} }

func allow(resourceID *model.ID, reasons ...model.Reason) model.AuthEvaluation {
	return model.AuthEvaluation{ResourceID: resourceID, Allowed: true, Reasons: reasons}
}

func deny(resourceID *model.ID, reasons ...model.Reason) model.AuthEvaluation {
	return model.AuthEvaluation{ResourceID: resourceID, Allowed: false, Reasons: reasons}
}
