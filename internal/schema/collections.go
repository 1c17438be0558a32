// Package schema names the document collections and the fields the
// services read and write. Field names are Spanish because the mobile
// client and the stored data already use them.
package schema

// Collections.
const (
	Citas      = "citas"
	Medicos    = "medicos"
	Pacientes  = "pacientes"
	Usuarios   = "usuarios"
	Encuestas  = "encuestas"
	Respuestas = "respuestas"
	Cuentas    = "cuentas"
)

// Collections lists every collection, in creation order for migrations.
func Collections() []string {
	return []string{Citas, Medicos, Pacientes, Usuarios, Encuestas, Respuestas, Cuentas}
}

// Common fields.
const (
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
	FieldUID       = "uid"
	FieldNombre    = "nombre"
	FieldEmail     = "email"
	FieldTelefono  = "telefono"
	FieldMedicoID  = "medicoId"
)

// Appointment (citas) fields.
const (
	FieldEstado       = "estado"
	FieldFecha        = "fecha"
	FieldHora         = "hora"
	FieldPacienteID   = "pacienteId"
	FieldPacienteUID  = "pacienteUid"
	FieldMedicoUID    = "medicoUid"
	FieldDoctorUID    = "doctorUid"
	FieldCanceladoPor = "canceladoPor"
	FieldCanceladoEn  = "canceladoEn"
	FieldMotivo       = "motivo"
)

// Patient (pacientes) and user (usuarios) fields.
const (
	FieldEncuestaID   = "encuestaId"
	FieldUbicacion    = "ubicacion"
	FieldGenero       = "genero"
	FieldEdad         = "edad"
	FieldRol          = "rol"
	FieldEspecialidad = "especialidad"
)

// Response (respuestas) fields.
const (
	FieldRespuestas = "respuestas"
)

// Account (cuentas) fields.
const (
	FieldPasswordHash = "passwordHash"
	FieldDisabled     = "disabled"
)
