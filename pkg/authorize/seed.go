package authorize

import (
	"context"
	"log/slog"
)

// DefaultPolicies is the baseline permission table.
func DefaultPolicies() []PermissionPolicy {
	return []PermissionPolicy{
		// Admin: everything, unconditionally
		{RoleAdmin, WildcardResource, WildcardAction, EffectAllow},

		// Medico: works its own caseload; ownership is checked by the services
		{RoleMedico, ResourceAppointment, ActionList, EffectAllow},
		{RoleMedico, ResourceAppointment, ActionCreate, EffectAllow},
		{RoleMedico, ResourceAppointment, ActionUpdate, EffectAllow},
		{RoleMedico, ResourcePatient, ActionList, EffectAllow},
		{RoleMedico, ResourcePatient, ActionCreate, EffectAllow},
		{RoleMedico, ResourceClinician, ActionList, EffectAllow},
		{RoleMedico, ResourceSurvey, WildcardAction, EffectAllow},
		{RoleMedico, ResourceResponse, ActionList, EffectAllow},
		{RoleMedico, ResourceSummary, ActionRead, EffectAllow},
		{RoleMedico, ResourcePatient, ActionManage, EffectDeny},
		{RoleMedico, ResourceAppointment, ActionManage, EffectDeny},

		// Paciente: the mobile surface
		{RolePaciente, ResourceAppointment, ActionCreate, EffectAllow},
		{RolePaciente, ResourceAppointment, ActionCancel, EffectAllow},
		{RolePaciente, ResourceAppointment, ActionRead, EffectAllow},
		{RolePaciente, ResourceAppointment, ActionList, EffectAllow},
		{RolePaciente, ResourceResponse, ActionCreate, EffectAllow},
		{RolePaciente, ResourceProfile, ActionRead, EffectAllow},
		{RolePaciente, ResourceSurvey, ActionRead, EffectAllow},
	}
}

// SeedDefaultPolicies loads DefaultPolicies into auth.
func SeedDefaultPolicies(ctx context.Context, auth Authorizer) error {
	logger := slog.Default()

	policies := DefaultPolicies()
	for _, p := range policies {
		added, err := auth.AddPermission(ctx, p)
		if err != nil {
			logger.Error("failed to add policy", "policy", p, "error", err)
			return err
		}
		if added {
			logger.Debug("added policy", "role", p.Subject, "resource", p.Object, "action", p.Action, "effect", p.Effect)
		}
	}

	logger.Debug("seeded default RBAC policies", "count", len(policies))
	return nil
}

// IsAdmin reports whether role may manage resource unconditionally.
// Errors count as "no".
func IsAdmin(ctx context.Context, auth Authorizer, role Role, resource Resource) bool {
	ok, err := auth.Enforce(ctx, role, resource, ActionManage)
	return err == nil && ok
}
