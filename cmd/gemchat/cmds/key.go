package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

var SetAPIKeyCmd = &cobra.Command{
	Use:   "set-api-key <key>",
	Short: "Store the Gemini API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager()
		if err != nil {
			return err
		}
		manager.SetCredential(args[0])
		fmt.Println("API key stored")
		return nil
	},
}
