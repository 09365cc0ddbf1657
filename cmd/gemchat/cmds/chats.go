package cmds

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ChatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage stored chats",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager()
		if err != nil {
			return err
		}
		printChatList(manager)
		return nil
	},
}

var chatsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored chats",
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager()
		if err != nil {
			return err
		}
		manager.ClearChats()
		fmt.Println("Cleared all chats")
		return nil
	},
}

func init() {
	ChatsCmd.AddCommand(chatsListCmd)
	ChatsCmd.AddCommand(chatsClearCmd)
}
