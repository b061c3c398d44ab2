package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dColl/cmd/bench"
	"github.com/ValentinKolb/dColl/cmd/db"
	"github.com/ValentinKolb/dColl/cmd/treemap"
	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dcoll",
		Short: "ordered collections and an ordered key-value store",
		Long: fmt.Sprintf(`dColl (v%s)

Generic collections for Go (a treap-backed ordered map with rank
queries, array list, linked list and hash map) and an ordered
key-value database built on top of the ordered map.`, Version),
		SilenceUsage:      true,
		PersistentPreRunE: setupLogging,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dColl",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dColl v%s\n", Version)
		},
	}
)

func init() {
	cobra.OnInitialize(util.InitConfig)

	// run the pre-run hooks of all parents, not only the closest one
	cobra.EnableTraverseRunHooks = true

	// Add Commands
	RootCmd.AddCommand(versionCmd)
	RootCmd.AddCommand(db.DBCommands)
	RootCmd.AddCommand(bench.BenchCmd)
	RootCmd.AddCommand(treemap.TreeMapCommands)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("Log level of the library packages (debug, info, warn, error)"))
}

// setupLogging binds the flags of the executed command and configures the loggers
func setupLogging(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	return util.InitLoggers(viper.GetString("log-level"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
