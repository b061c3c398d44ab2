package db

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/ValentinKolb/dColl/cmd/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// parseOffsets parses the expireIn and deleteIn arguments
func parseOffsets(expire, del string) (expireIn, deleteIn uint64, err error) {
	if expireIn, err = strconv.ParseUint(expire, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("expireIn must be a number: %w", err)
	}
	if deleteIn, err = strconv.ParseUint(del, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("deleteIn must be a number: %w", err)
	}
	return expireIn, deleteIn, nil
}

var (
	setCmd = &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Sets the value for a key",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			database.Set(args[0], []byte(args[1]), nextIdx())
			fmt.Println("set successfully")
		},
	}
	setECmd = &cobra.Command{
		Use:   "setE [key] [value] [expireIn] [deleteIn]",
		Short: "Sets the value for a key with expiration and deletion offsets (0 = never)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			expireIn, deleteIn, err := parseOffsets(args[2], args[3])
			if err != nil {
				return err
			}
			database.SetE(args[0], []byte(args[1]), nextIdx(), expireIn, deleteIn)
			fmt.Println("setE successfully")
			return nil
		},
	}
	setEIfUnsetCmd = &cobra.Command{
		Use:   "setEIfUnset [key] [value] [expireIn] [deleteIn]",
		Short: "Like setE, but only if the key is not already set",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			expireIn, deleteIn, err := parseOffsets(args[2], args[3])
			if err != nil {
				return err
			}
			database.SetEIfUnset(args[0], []byte(args[1]), nextIdx(), expireIn, deleteIn)
			fmt.Println("setEIfUnset successfully")
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [key]",
		Short: "Reads the value for a key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			value, ok := database.Get(args[0])
			fmt.Printf("key=%s, found=%v, value=%s\n", args[0], ok, value)
		},
	}
	hasCmd = &cobra.Command{
		Use:   "has [key]",
		Short: "Checks if a key exists (expired keys exist until they are deleted)",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("key=%s, found=%t\n", args[0], database.Has(args[0]))
		},
	}
	delCmd = &cobra.Command{
		Use:   "del [key]",
		Short: "Deletes a key value pair",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			database.Delete(args[0], nextIdx())
			fmt.Println("delete successfully")
		},
	}
	expireCmd = &cobra.Command{
		Use:   "expire [key]",
		Short: "Expires the value for a key",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			database.Expire(args[0], nextIdx())
			fmt.Println("expire successfully")
		},
	}
	tickCmd = &cobra.Command{
		Use:   "tick [n]",
		Short: "Advances the write index by n without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("n must be a number: %w", err)
			}
			modified = true
			database.SetWriteIdx(database.WriteIdx() + n)
			fmt.Printf("write index=%d\n", database.WriteIdx())
			return nil
		},
	}
	scanCmd = &cobra.Command{
		Use:   "scan [from]",
		Short: "Lists keys in order, starting at the first key >= from",
		Args:  cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			from := ""
			if len(args) == 1 {
				from = args[0]
			}
			limit := viper.GetInt("limit")

			n := 0
			database.Scan(from, func(key string, value []byte) bool {
				fmt.Printf("%s=%s\n", key, value)
				n++
				return limit <= 0 || n < limit
			})
			fmt.Printf("(%d keys)\n", n)
		},
	}
	infoCmd = &cobra.Command{
		Use:   "info",
		Short: "Prints statistics about the database as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("metrics") {
				database.WriteMetrics(os.Stdout)
				return nil
			}
			out, err := json.MarshalIndent(database.GetInfo(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
)

func init() {
	key := "limit"
	scanCmd.Flags().Int(key, 0, util.WrapString("Maximum number of keys to list (0 = all)"))
	key = "metrics"
	infoCmd.Flags().Bool(key, false, util.WrapString("Print the metrics of the database in Prometheus text format instead"))
}
