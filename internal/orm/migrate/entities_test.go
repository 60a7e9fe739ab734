package migrate

import (
	"time"

	"github.com/apolon-health/apolon/internal/orm/schema"
)

type Patient struct {
	ID        int    `orm:"pk;autoincrement;column:Id"`
	FirstName string `orm:"notnull;maxlen:100"`
	LastName  string `orm:"notnull;maxlen:100"`
	Email     string `orm:"maxlen:255"`
	BirthDate time.Time
	Balance   float64
	Weight    float32
	Active    bool
	Notes     string   `orm:"type:TEXT"`
	Visits    []string `orm:"-"`
}

func (Patient) TableName() string { return "Patients" }

type Visit struct {
	ID        int64  `orm:"pk;autoincrement;column:Id"`
	PatientID int    `orm:"notnull;column:patient_id"`
	Reason    string `orm:"type:varchar;maxlen:40"`
	Room      *int16
}

func (Visit) ForeignKeys() []schema.ForeignKey {
	return []schema.ForeignKey{schema.References("PatientID", Patient{})}
}

type Code struct {
	Value string `orm:"pk;maxlen:10;column:Code"`
	Label string
}
