package authorize

type Action string
type Resource string
type Role string

// ----------------------------
// Actions
// ----------------------------

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// ActionManage is the unconditional form of every other action: a role
	// holding it skips ownership checks.
	ActionManage Action = "manage"

	// ActionCancel is the patient self-cancel of an appointment.
	ActionCancel Action = "cancel"
)

const (
	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionManage: {}, ActionCancel: {},
}

// ----------------------------
// Resources
// ----------------------------

const (
	WildcardResource Resource = "*"

	ResourceAppointment Resource = "cita"
	ResourcePatient     Resource = "paciente"
	ResourceClinician   Resource = "medico"
	ResourceSurvey      Resource = "encuesta"
	ResourceResponse    Resource = "respuesta"
	ResourceSummary     Resource = "resumen"
	ResourceProfile     Resource = "perfil"
)

var KnownResources = map[Resource]struct{}{
	ResourceAppointment: {}, ResourcePatient: {}, ResourceClinician: {},
	ResourceSurvey: {}, ResourceResponse: {}, ResourceSummary: {}, ResourceProfile: {},
}

// ----------------------------
// Roles
// ----------------------------
//
// Role values are the `rol` strings stored in usuarios records.

const (
	RoleAdmin    Role = "admin"
	RoleMedico   Role = "medico"
	RolePaciente Role = "paciente"
)

var KnownRoles = map[Role]struct{}{
	RoleAdmin:    {},
	RoleMedico:   {},
	RolePaciente: {},
}

// RoleDisplayNamesES are the labels the dashboard shows.
var RoleDisplayNamesES = map[Role]string{
	RoleAdmin:    "Administrador",
	RoleMedico:   "Médico",
	RolePaciente: "Paciente",
}

// IsKnownRole reports whether r is one of the three clinic roles.
func IsKnownRole(r string) bool {
	_, ok := KnownRoles[Role(r)]
	return ok
}

// ----------------------------
// Casbin tuple helpers
// ----------------------------

type PolicyEffect string

const (
	EffectAllow PolicyEffect = "allow"
	EffectDeny  PolicyEffect = "deny"
)

// Permission rows: p, role, resource, action, eft
type PermissionPolicy struct {
	Subject Role
	Object  Resource
	Action  Action
	Effect  PolicyEffect
}
