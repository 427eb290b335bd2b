package config

import "git.home.luguber.info/inful/farmworlds/internal/foundation/normalization"

// Driver names a storage backend.
type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverS3       Driver = "s3"
)

var driverNormalizer = normalization.NewEnumNormalizer("storage driver", map[string]Driver{
	"memory":   DriverMemory,
	"mem":      DriverMemory,
	"sqlite":   DriverSQLite,
	"sqlite3":  DriverSQLite,
	"postgres": DriverPostgres,
	"pg":       DriverPostgres,
	"pgx":      DriverPostgres,
	"s3":       DriverS3,
}, DriverSQLite)

// NormalizeDriver canonicalizes aliases. Unknown names are kept so Validate
// can report them.
func NormalizeDriver(raw string) Driver {
	if raw == "" {
		return driverNormalizer.Normalize(raw)
	}
	d, err := driverNormalizer.NormalizeWithValidation(raw)
	if err != nil {
		return Driver(raw)
	}
	return d
}

// Drivers lists the accepted driver names.
func Drivers() []string { return driverNormalizer.ValidValues() }
