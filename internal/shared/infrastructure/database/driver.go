package database

import "strings"

// Driver names a storage backend for the task collection.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
	DriverRedis    Driver = "redis"
	DriverFile     Driver = "file"
	DriverMemory   Driver = "memory"
)

// String returns the string representation of the driver.
func (d Driver) String() string {
	return string(d)
}

// IsValid returns true if the driver is a known type.
func (d Driver) IsValid() bool {
	switch d {
	case DriverSQLite, DriverPostgres, DriverRedis, DriverFile, DriverMemory:
		return true
	default:
		return false
	}
}

// DetectDriver guesses the backend from a connection string.
// Returns DriverSQLite for empty URLs to enable zero-config local mode.
func DetectDriver(url string) Driver {
	switch {
	case url == "":
		return DriverSQLite
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return DriverRedis
	case strings.HasSuffix(url, ".json"):
		return DriverFile
	default:
		return DriverSQLite
	}
}

// ParseDriver resolves an explicit driver name, falling back to detection
// from url when name is empty or "auto".
func ParseDriver(name, url string) (Driver, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "auto" {
		return DetectDriver(url), true
	}
	d := Driver(name)
	return d, d.IsValid()
}
