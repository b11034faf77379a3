package accesspolicy

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filez-project/filez/pkg/model"
)

func newUser(superAdmin bool) *model.User {
	u := &model.User{ID: model.NewID(), UserType: model.UserTypeRegular}
	if superAdmin {
		u.UserType = model.UserTypeSuperAdmin
	}
	return u
}

func trustedApp() model.App  { return model.App{ID: model.NewID(), Trusted: true} }
func untrustedApp() model.App { return model.App{ID: model.NewID(), Trusted: false} }

// Scenario 1: ownership allows.
func TestEvaluate_OwnershipAllows(t *testing.T) {
	u := newUser(false)
	file := model.NewID()
	in := EvalInput{
		User:        u,
		App:         trustedApp(),
		Action:      model.ActionFilesGet,
		ResourceIDs: []model.ID{file},
		Owners:      map[model.ID]model.ID{file: u.ID},
	}
	res := Evaluate(in)
	require.Len(t, res.Evaluations, 1)
	assert.True(t, res.Evaluations[0].Allowed)
	require.True(t, res.Verify())
}

// Scenario 2: untrusted-app gate denies despite a user-side Allow policy.
func TestEvaluate_UntrustedAppGateDenies(t *testing.T) {
	u := newUser(false)
	app := untrustedApp()
	file := model.NewID()
	policies := []model.AccessPolicy{
		{
			ID: model.NewID(), SubjectType: model.SubjectUser, SubjectID: &u.ID,
			ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectAllow,
		},
	}
	in := EvalInput{User: u, App: app, Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}, Policies: policies}
	res := Evaluate(in)
	require.Len(t, res.Evaluations, 1)
	assert.False(t, res.Evaluations[0].Allowed)
}

// Scenario 2b: the same policy set with a trusted app allows.
func TestEvaluate_TrustedAppSkipsGate(t *testing.T) {
	u := newUser(false)
	app := trustedApp()
	file := model.NewID()
	policies := []model.AccessPolicy{
		{
			ID: model.NewID(), SubjectType: model.SubjectUser, SubjectID: &u.ID,
			ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectAllow,
		},
	}
	in := EvalInput{User: u, App: app, Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}, Policies: policies}
	res := Evaluate(in)
	assert.True(t, res.Evaluations[0].Allowed)
}

// Scenario 3: a Deny policy against the specific resource overrides ownership.
func TestEvaluate_DenyOverridesOwnership(t *testing.T) {
	u := newUser(false)
	file := model.NewID()
	policies := []model.AccessPolicy{
		{
			ID: model.NewID(), SubjectType: model.SubjectUser, SubjectID: &u.ID,
			ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectDeny,
		},
	}
	in := EvalInput{
		User: u, App: trustedApp(), Action: model.ActionFilesGet,
		ResourceIDs: []model.ID{file}, Owners: map[model.ID]model.ID{file: u.ID}, Policies: policies,
	}
	res := Evaluate(in)
	assert.False(t, res.Evaluations[0].Allowed)
}

func TestEvaluate_SuperAdminShortcutIgnoresDenyAndUntrustedGate(t *testing.T) {
	u := newUser(true)
	file := model.NewID()
	policies := []model.AccessPolicy{
		{ID: model.NewID(), SubjectType: model.SubjectPublic, ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectDeny},
	}
	in := EvalInput{User: u, App: untrustedApp(), Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}, Policies: policies}
	res := Evaluate(in)
	assert.True(t, res.Evaluations[0].Allowed)
}

func TestEvaluate_TypeLevelPolicyAppliesWhenNoDirectMatch(t *testing.T) {
	u := newUser(false)
	file := model.NewID()
	policies := []model.AccessPolicy{
		{ID: model.NewID(), SubjectType: model.SubjectServerMember, ResourceType: model.ResourceFile, ResourceID: nil,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectAllow},
	}
	in := EvalInput{User: u, App: trustedApp(), Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}, Policies: policies}
	res := Evaluate(in)
	assert.True(t, res.Evaluations[0].Allowed)
}

func TestEvaluate_DirectPolicyBeatsTypeLevel(t *testing.T) {
	u := newUser(false)
	file := model.NewID()
	policies := []model.AccessPolicy{
		{ID: model.NewID(), SubjectType: model.SubjectServerMember, ResourceType: model.ResourceFile, ResourceID: nil,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectAllow},
		{ID: model.NewID(), SubjectType: model.SubjectServerMember, ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectDeny},
	}
	in := EvalInput{User: u, App: trustedApp(), Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}, Policies: policies}
	res := Evaluate(in)
	assert.False(t, res.Evaluations[0].Allowed)
}

func TestEvaluate_GroupSubjectMatches(t *testing.T) {
	u := newUser(false)
	group := model.NewID()
	file := model.NewID()
	policies := []model.AccessPolicy{
		{ID: model.NewID(), SubjectType: model.SubjectUserGroup, SubjectID: &group, ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectAllow},
	}
	in := EvalInput{
		User: u, App: trustedApp(), Action: model.ActionFilesGet, ResourceIDs: []model.ID{file},
		Policies: policies, UserGroupIDs: map[model.ID]bool{group: true},
	}
	res := Evaluate(in)
	assert.True(t, res.Evaluations[0].Allowed)
}

func TestEvaluate_PublicMatchesUnauthenticatedCaller(t *testing.T) {
	file := model.NewID()
	policies := []model.AccessPolicy{
		{ID: model.NewID(), SubjectType: model.SubjectPublic, ResourceType: model.ResourceFile, ResourceID: &file,
			Actions: []model.Action{model.ActionFilesGet}, Effect: model.EffectAllow},
	}
	in := EvalInput{User: nil, App: trustedApp(), Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}, Policies: policies}
	res := Evaluate(in)
	assert.True(t, res.Evaluations[0].Allowed)
}

func TestEvaluate_DefaultDeny(t *testing.T) {
	u := newUser(false)
	file := model.NewID()
	in := EvalInput{User: u, App: trustedApp(), Action: model.ActionFilesGet, ResourceIDs: []model.ID{file}}
	res := Evaluate(in)
	assert.False(t, res.Evaluations[0].Allowed)
	assert.False(t, res.Verify())
}

func TestEvaluate_TypeLevelCreateCheck(t *testing.T) {
	u := newUser(false)
	policies := []model.AccessPolicy{
		{ID: model.NewID(), SubjectType: model.SubjectServerMember, ResourceType: model.ResourceFile, ResourceID: nil,
			Actions: []model.Action{model.ActionFilesCreate}, Effect: model.EffectAllow},
	}
	in := EvalInput{User: u, App: trustedApp(), Action: model.ActionFilesCreate, Policies: policies}
	res := Evaluate(in)
	require.Len(t, res.Evaluations, 1)
	assert.Nil(t, res.Evaluations[0].ResourceID)
	assert.True(t, res.VerifyAllowTypeLevel())
}

// referenceEvaluate is a deliberately naive re-implementation of the
// resolution order, used as an oracle for the property test below: it
// walks the rules exactly as spec.md §4.3 states them, without sharing any
// helper code with Evaluate.
func referenceEvaluate(in EvalInput, resourceID model.ID) bool {
	if in.User != nil && in.User.IsSuperAdmin() {
		return true
	}
	match := func(p model.AccessPolicy) bool { return subjectMatches(in, p) }
	directAndTypeLevel := func(rid *model.ID) (bool, bool, bool) {
		sawAllow, sawDeny := false, false
		for _, p := range in.Policies {
			if !sameResourceID(p.ResourceID, rid) || !p.Grants(in.Action) || !match(p) {
				continue
			}
			if p.Effect == model.EffectDeny {
				sawDeny = true
			} else {
				sawAllow = true
			}
		}
		return sawAllow, sawDeny, sawAllow || sawDeny
	}
	checkGate := func(tentative bool) bool {
		if !tentative {
			return false
		}
		if in.App.Trusted {
			return true
		}
		for _, rid := range []*model.ID{&resourceID, nil} {
			for _, p := range in.Policies {
				if sameResourceID(p.ResourceID, rid) && p.Grants(in.Action) &&
					p.SubjectType == model.SubjectApp && p.SubjectID != nil && *p.SubjectID == in.App.ID &&
					p.Effect == model.EffectAllow {
					return true
				}
			}
		}
		return false
	}
	if owner, ok := in.Owners[resourceID]; ok && in.User != nil && owner == in.User.ID {
		_, sawDeny, _ := directAndTypeLevel(&resourceID)
		if sawDeny {
			return false
		}
		return checkGate(true)
	}
	if allow, deny, fired := directAndTypeLevel(&resourceID); fired {
		if deny {
			return false
		}
		return checkGate(allow)
	}
	if allow, deny, fired := directAndTypeLevel(nil); fired {
		if deny {
			return false
		}
		return checkGate(allow)
	}
	return false
}

// TestEvaluate_AgreesWithReference fuzzes random policy sets against the
// naive oracle above (spec §8, "Auth soundness").
func TestEvaluate_AgreesWithReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	users := make([]*model.User, 3)
	for i := range users {
		users[i] = newUser(i == 0)
	}
	groups := []model.ID{model.NewID(), model.NewID()}
	resources := []model.ID{model.NewID(), model.NewID(), model.NewID()}
	subjectTypes := []model.SubjectType{model.SubjectUser, model.SubjectUserGroup, model.SubjectApp, model.SubjectPublic, model.SubjectServerMember}

	for iter := 0; iter < 500; iter++ {
		app := model.App{ID: model.NewID(), Trusted: rng.Intn(2) == 0}
		u := users[rng.Intn(len(users))]
		owners := map[model.ID]model.ID{}
		for _, r := range resources {
			if rng.Intn(2) == 0 {
				owners[r] = users[rng.Intn(len(users))].ID
			}
		}
		var policies []model.AccessPolicy
		for i := 0; i < rng.Intn(6); i++ {
			st := subjectTypes[rng.Intn(len(subjectTypes))]
			var sid *model.ID
			switch st {
			case model.SubjectUser:
				id := users[rng.Intn(len(users))].ID
				sid = &id
			case model.SubjectUserGroup:
				id := groups[rng.Intn(len(groups))]
				sid = &id
			case model.SubjectApp:
				sid = &app.ID
			}
			var rid *model.ID
			if rng.Intn(2) == 0 {
				id := resources[rng.Intn(len(resources))]
				rid = &id
			}
			eff := model.EffectAllow
			if rng.Intn(2) == 0 {
				eff = model.EffectDeny
			}
			policies = append(policies, model.AccessPolicy{
				ID: model.NewID(), SubjectType: st, SubjectID: sid,
				ResourceType: model.ResourceFile, ResourceID: rid,
				Actions: []model.Action{model.ActionFilesGet}, Effect: eff,
			})
		}
		groupIDs := map[model.ID]bool{}
		if rng.Intn(2) == 0 {
			groupIDs[groups[0]] = true
		}

		in := EvalInput{
			User: u, App: app, Action: model.ActionFilesGet,
			ResourceIDs: resources, Owners: owners, Policies: policies, UserGroupIDs: groupIDs,
		}
		got := Evaluate(in)
		for i, r := range resources {
			want := referenceEvaluate(in, r)
			assert.Equalf(t, want, got.Evaluations[i].Allowed, "iter=%d resource=%d", iter, i)
		}
	}
}
