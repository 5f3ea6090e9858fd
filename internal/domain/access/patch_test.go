package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicare/medicare/internal/platform/apperr"
)

func TestPatchPolicy_AppointmentPatient(t *testing.T) {
	p := PatchPolicyFor(patientA, KindAppointment)

	kept, err := p.Apply([]string{FieldStatus})
	require.NoError(t, err)
	assert.True(t, kept[FieldStatus])

	for _, patch := range [][]string{
		{FieldNotes},
		{FieldStatus, FieldNotes},
		{FieldDate},
		{FieldDoctor},
	} {
		_, err := p.Apply(patch)
		assert.True(t, apperr.IsKind(err, apperr.KindForbidden), "patch %v", patch)
		assert.EqualError(t, err, "Patients can only cancel appointments")
	}
}

func TestPatchPolicy_AppointmentDoctor(t *testing.T) {
	p := PatchPolicyFor(doctorD, KindAppointment)

	kept, err := p.Apply([]string{FieldDate, FieldTime, FieldNotes, FieldStatus, FieldDoctor})
	require.NoError(t, err)
	assert.Len(t, kept, 5)

	_, err = p.Apply([]string{FieldNotes, FieldPatient})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))
}

func TestPatchPolicy_AppointmentAdmin(t *testing.T) {
	kept, err := PatchPolicyFor(admin, KindAppointment).Apply([]string{FieldPatient, FieldDoctor, FieldStatus})
	require.NoError(t, err)
	assert.True(t, kept[FieldPatient])
}

func TestPatchPolicy_MedicalRecord(t *testing.T) {
	_, err := PatchPolicyFor(doctorD, KindMedicalRecord).Apply([]string{FieldDiagnosis, FieldDoctor})
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	kept, err := PatchPolicyFor(admin, KindMedicalRecord).Apply([]string{FieldDiagnosis, FieldDoctor})
	require.NoError(t, err)
	assert.True(t, kept[FieldDoctor])

	_, err = PatchPolicyFor(patientA, KindMedicalRecord).Apply([]string{FieldNotes})
	assert.Error(t, err)
}

func TestPatchPolicy_UtilityRequestDropsSilently(t *testing.T) {
	kept, err := PatchPolicyFor(admin, KindUtilityRequest).
		Apply([]string{FieldStatus, FieldAdminNotes, FieldItemName, FieldQuantity})
	require.NoError(t, err)
	assert.Equal(t, FieldSet{FieldStatus: true, FieldAdminNotes: true}, kept)
}

func TestPatchPolicy_UserStripsPrivilegedFields(t *testing.T) {
	present := []string{FieldName, FieldRole, FieldPassword, FieldIsVerified}

	kept, err := PatchPolicyFor(patientA, KindUser).Apply(present)
	require.NoError(t, err)
	assert.Equal(t, FieldSet{FieldName: true}, kept)

	kept, err = PatchPolicyFor(admin, KindUser).Apply(present)
	require.NoError(t, err)
	assert.Equal(t, FieldSet{FieldName: true, FieldRole: true}, kept)
}
