package medical

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/apolon-health/apolon/internal/orm/crud"
	"github.com/apolon-health/apolon/internal/orm/dbcontext"
)

// Context exposes a repository per medical table
type Context struct {
	*dbcontext.Context

	CheckupTypes   *crud.Repository[CheckupTypeEntity]
	Patients       *crud.Repository[Patient]
	MedicalRecords *crud.Repository[MedicalRecord]
	Checkups       *crud.Repository[Checkup]
	Prescriptions  *crud.Repository[Prescription]
}

// NewContext builds the repositories on db
func NewContext(db *dbcontext.Context) (*Context, error) {
	c := &Context{Context: db}

	var err error
	if c.CheckupTypes, err = dbcontext.Set[CheckupTypeEntity](db); err != nil {
		return nil, err
	}
	if c.Patients, err = dbcontext.Set[Patient](db); err != nil {
		return nil, err
	}
	if c.MedicalRecords, err = dbcontext.Set[MedicalRecord](db); err != nil {
		return nil, err
	}
	if c.Checkups, err = dbcontext.Set[Checkup](db); err != nil {
		return nil, err
	}
	if c.Prescriptions, err = dbcontext.Set[Prescription](db); err != nil {
		return nil, err
	}
	return c, nil
}

// SeedCheckupTypes inserts one row per checkup type code when the lookup
// table is empty and returns the number of rows inserted
func (c *Context) SeedCheckupTypes(ctx context.Context) (int, error) {
	existing, err := c.CheckupTypes.Count(ctx, "", nil)
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		c.Logger().Info("checkup types already seeded", zap.Int64("count", existing))
		return 0, nil
	}

	seeded := 0
	for _, t := range CheckupTypes() {
		if _, err := c.CheckupTypes.Add(ctx, &CheckupTypeEntity{Name: string(t)}); err != nil {
			return seeded, fmt.Errorf("seed checkup type %s: %w", t, err)
		}
		seeded++
	}

	c.Logger().Info("seeded checkup types", zap.Int("count", seeded))
	return seeded, nil
}
