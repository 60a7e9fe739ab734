package medical

import "github.com/apolon-health/apolon/internal/orm/migrate"

// InitialMigrationID identifies the migration creating the initial schema
const InitialMigrationID = "20250117000000_Initial"

// InitialMigration creates the checkup type, patient, medical record,
// checkup and prescription tables with their foreign keys and indexes
func InitialMigration() migrate.Migration {
	return migrate.New(InitialMigrationID,
		"Create initial tables: checkup_types, patients, medical_records, checkups, prescriptions",
		initialUp, initialDown)
}

func initialUp(b *migrate.Builder) error {
	b.CreateTable(CheckupTypeEntity{})
	b.CreateTable(Patient{})

	b.CreateTable(MedicalRecord{}).
		CreateForeignKey(MedicalRecord{}, "PatientID", Patient{})

	b.CreateTable(Checkup{}).
		CreateForeignKey(Checkup{}, "PatientID", Patient{}).
		CreateForeignKey(Checkup{}, "CheckupTypeID", CheckupTypeEntity{}).
		CreateIndex(Checkup{}, "PatientID").
		CreateIndex(Checkup{}, "CheckupTypeID")

	b.CreateTable(Prescription{}).
		CreateForeignKey(Prescription{}, "PatientID", Patient{}).
		CreateIndex(Prescription{}, "PatientID").
		CreateIndex(Prescription{}, "StartDate")
	return nil
}

// initialDown drops tables in reverse creation order
func initialDown(b *migrate.Builder) error {
	b.DropTable(Prescription{}).
		DropTable(Checkup{}).
		DropTable(MedicalRecord{}).
		DropTable(Patient{}).
		DropTable(CheckupTypeEntity{})
	return nil
}

// Migrations returns every migration of the medical schema
func Migrations() []migrate.Migration {
	return []migrate.Migration{
		InitialMigration(),
	}
}
