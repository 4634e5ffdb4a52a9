package legigraph

import (
	"os"
	"path/filepath"
)

// Config holds all configuration for the LegiGraph engine.
type Config struct {
	// DBPath is the full path to the SQLite database file.
	// If empty, defaults to ~/.legigraph/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	// Defaults to "legigraph". The file will be <DBName>.db inside the
	// storage directory (~/.legigraph/ or working dir).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.legigraph/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir"`

	// Retrieval weights for RRF
	WeightVector float64 `json:"weight_vector" yaml:"weight_vector"`
	WeightFTS    float64 `json:"weight_fts" yaml:"weight_fts"`

	// VectorDim is the dimensionality of the hashed section vectors.
	VectorDim int `json:"vector_dim" yaml:"vector_dim"`
}

// DefaultConfig returns a Config with sensible defaults.
// Database is stored in ~/.legigraph/legigraph.db by default.
func DefaultConfig() Config {
	return Config{
		DBName:       "legigraph",
		StorageDir:   "home",
		WeightVector: 1.0,
		WeightFTS:    1.0,
		VectorDim:    256,
	}
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "legigraph"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		dir := filepath.Join(home, ".legigraph")
		return filepath.Join(dir, name+".db")
	}
}
