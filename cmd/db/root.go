package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/ValentinKolb/dColl/lib/db/engines/treap"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	plog = logger.GetLogger("cmd")

	// database is opened before and saved after every command of the group
	database *treap.TreapDB
	// modified is set by commands that change the database
	modified bool

	// DBCommands represents the database command group
	DBCommands = &cobra.Command{
		Use:   "db",
		Short: "Operate on an ordered key-value database stored in a snapshot file",
		Long: `Operate on an ordered key-value database stored in a snapshot file.

Every command loads the file (if it exists), applies the operation and writes
the file back if the operation changed the database. Each write advances the
write index of the database by one, expiration and deletion offsets are
counted in writes.`,
		PersistentPreRunE:  openDB,
		PersistentPostRunE: closeDB,
	}
)

func init() {
	key := "file"
	DBCommands.PersistentFlags().String(key, "dcoll.db", util.WrapString("Path of the snapshot file"))
	key = "compression"
	DBCommands.PersistentFlags().String(key, "none", util.WrapString("Compression of the snapshot file when it is written (none, lz4, zstd)"))

	DBCommands.AddCommand(setCmd)
	DBCommands.AddCommand(setECmd)
	DBCommands.AddCommand(setEIfUnsetCmd)
	DBCommands.AddCommand(getCmd)
	DBCommands.AddCommand(hasCmd)
	DBCommands.AddCommand(delCmd)
	DBCommands.AddCommand(expireCmd)
	DBCommands.AddCommand(tickCmd)
	DBCommands.AddCommand(scanCmd)
	DBCommands.AddCommand(infoCmd)
}

// openDB creates the database and loads the snapshot file if it exists
func openDB(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	compression, err := treap.ParseCompression(viper.GetString("compression"))
	if err != nil {
		return err
	}

	opts := treap.DefaultOptions()
	opts.Compression = compression
	database = treap.NewTreapDB(opts)
	modified = false

	path := viper.GetString("file")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		plog.Infof("%s does not exist, starting with an empty database", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	if err := database.Load(f); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// closeDB writes the snapshot file if the database was modified and stops the database
func closeDB(_ *cobra.Command, _ []string) error {
	defer database.Close()
	if !modified {
		return nil
	}
	return writeSnapshot(viper.GetString("file"))
}

// writeSnapshot replaces the file at path with a snapshot of the database.
// The snapshot is written to a temporary file first, so a failed write leaves the old file intact.
func writeSnapshot(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := database.Save(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	plog.Debugf("saved %d keys to %s", database.Len(), path)
	return os.Rename(tmp.Name(), path)
}

// nextIdx returns the write index for the next write
func nextIdx() uint64 {
	modified = true
	return database.WriteIdx() + 1
}
