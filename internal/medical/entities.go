// Package medical declares the tables of the patient records system, its
// initial migration and the checkup type seed data.
package medical

import (
	"time"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

// CheckupTypeEntity is a row of the checkup type lookup table
type CheckupTypeEntity struct {
	ID   int    `orm:"pk;autoincrement;column:id"`
	Name string `orm:"column:name;maxlen:50;notnull"`
}

func (CheckupTypeEntity) TableName() string { return "checkup_types" }

// Patient is a registered patient
type Patient struct {
	ID          int       `orm:"pk;autoincrement;column:id"`
	FirstName   string    `orm:"maxlen:100"`
	LastName    string    `orm:"maxlen:100"`
	DateOfBirth time.Time `orm:"column:date_of_birth"`
	Gender      string    `orm:"maxlen:10"`
	PhoneNumber *string   `orm:"maxlen:20"`
	Email       *string   `orm:"maxlen:255"`
	Address     *string   `orm:"maxlen:500"`
}

func (Patient) TableName() string { return "patients" }

// FullName returns the first and last name separated by a space
func (p *Patient) FullName() string {
	return p.FirstName + " " + p.LastName
}

// Age returns the age in whole years at now
func (p *Patient) Age(now time.Time) int {
	age := now.Year() - p.DateOfBirth.Year()
	if now.YearDay() < p.DateOfBirth.YearDay() {
		age--
	}
	return age
}

// MedicalRecord is a diagnosis recorded for a patient
type MedicalRecord struct {
	ID         int       `orm:"pk;autoincrement;column:id"`
	PatientID  int       `orm:"column:patient_id"`
	RecordDate time.Time `orm:"column:record_date"`
	Diagnosis  string    `orm:"maxlen:1000"`
	Notes      *string   `orm:"maxlen:5000"`
	DoctorName string    `orm:"maxlen:200"`

	Patient *Patient `orm:"-"`
}

func (MedicalRecord) TableName() string { return "medical_records" }

func (MedicalRecord) ForeignKeys() []schema.ForeignKey {
	return []schema.ForeignKey{schema.References("PatientID", Patient{})}
}

// Checkup is an examination of a patient
type Checkup struct {
	ID            int       `orm:"pk;autoincrement;column:id"`
	PatientID     int       `orm:"column:patient_id"`
	CheckupTypeID int       `orm:"column:checkup_type_id"`
	CheckupDate   time.Time `orm:"column:checkup_date"`
	Results       *string   `orm:"maxlen:5000"`
	Notes         *string   `orm:"maxlen:2000"`
	DoctorName    string    `orm:"maxlen:200"`

	Patient     *Patient           `orm:"-"`
	CheckupType *CheckupTypeEntity `orm:"-"`
}

func (Checkup) TableName() string { return "checkups" }

func (Checkup) ForeignKeys() []schema.ForeignKey {
	return []schema.ForeignKey{
		schema.References("PatientID", Patient{}),
		schema.References("CheckupTypeID", CheckupTypeEntity{}),
	}
}

// Prescription is a medication prescribed to a patient
type Prescription struct {
	ID           int        `orm:"pk;autoincrement;column:id"`
	PatientID    int        `orm:"column:patient_id"`
	Medication   string     `orm:"maxlen:200"`
	Dosage       string     `orm:"maxlen:100"`
	StartDate    time.Time  `orm:"column:start_date"`
	EndDate      *time.Time `orm:"column:end_date"`
	DoctorName   string     `orm:"maxlen:200"`
	Instructions *string    `orm:"maxlen:1000"`

	Patient *Patient `orm:"-"`
}

func (Prescription) TableName() string { return "prescriptions" }

func (Prescription) ForeignKeys() []schema.ForeignKey {
	return []schema.ForeignKey{schema.References("PatientID", Patient{})}
}

// IsActive reports whether the prescription has no end date or ends after now
func (p *Prescription) IsActive(now time.Time) bool {
	return p.EndDate == nil || p.EndDate.After(now)
}
