package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tally/internal/snapshot"
)

// BackendOptions selects a snapshot backend.
type BackendOptions struct {
	DB      string // SQLite database file
	LevelDB string // LevelDB directory
}

func (o *BackendOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.DB, "db", "", "SQLite snapshot database")
	cmd.Flags().StringVar(&o.LevelDB, "leveldb", "", "LevelDB snapshot directory")
}

// configured reports whether any backend flag was set.
func (o *BackendOptions) configured() bool {
	return o.DB != "" || o.LevelDB != ""
}

// open opens the selected backend. Exactly one of --db and --leveldb must
// be set.
func (o *BackendOptions) open() (snapshot.Backend, error) {
	switch {
	case o.DB != "" && o.LevelDB != "":
		return nil, NewExitError(ExitCommandError, "--db and --leveldb are mutually exclusive")
	case o.DB != "":
		b, err := snapshot.OpenSQLite(o.DB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open database %s", o.DB), err)
		}
		return b, nil
	case o.LevelDB != "":
		b, err := snapshot.OpenLevelDB(o.LevelDB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open leveldb %s", o.LevelDB), err)
		}
		return b, nil
	}
	return nil, NewExitError(ExitCommandError, "one of --db or --leveldb is required")
}
