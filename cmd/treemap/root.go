package treemap

import (
	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
)

var (
	plog = logger.GetLogger("cmd")

	// TreeMapCommands represents the treemap command group
	TreeMapCommands = &cobra.Command{
		Use:   "treemap",
		Short: "Experiments on the balance and compaction behavior of the treap map",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
	}
)

func init() {
	TreeMapCommands.AddCommand(heightCmd)
	TreeMapCommands.AddCommand(churnCmd)
}
