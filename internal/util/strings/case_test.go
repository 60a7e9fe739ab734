package strings

import "testing"

func TestToSnakeCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"PatientId", "patient_id"},
		{"ID", "i_d"},
		{"PatientID", "patient_i_d"},
		{"id", "id"},
		{"Id", "id"},
		{"FirstName", "first_name"},
		{"firstName", "first_name"},
		{"CheckupTypeEntity", "checkup_type_entity"},
		{"HTTPServer", "h_t_t_p_server"},
		{"already_snake", "already_snake"},
		{"Address2", "address2"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ToSnakeCase(tt.input); got != tt.want {
				t.Errorf("ToSnakeCase(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
