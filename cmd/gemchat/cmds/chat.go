package cmds

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/gemchat/pkg/chat"
)

var ChatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat session",
	Long: `Start a line-oriented chat session against the Gemini API.

Commands: /new, /list, /switch <n>, /delete <n>, /clear, /quit.
Anything else is sent as a prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newManager()
		if err != nil {
			return err
		}

		if c, ok := manager.ActiveChat(); ok {
			fmt.Printf("Resuming chat: %s\n", c.Title)
		}

		scanner := bufio.NewScanner(os.Stdin)
		for {
			fmt.Print("> ")
			if !scanner.Scan() {
				return scanner.Err()
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, "/") {
				quit, err := runReplCommand(manager, line)
				if err != nil {
					fmt.Fprintln(os.Stderr, err.Error())
				}
				if quit {
					return nil
				}
				continue
			}

			if err := manager.SendMessage(cmd.Context(), line); err != nil {
				printSendError(err)
				continue
			}

			printLastReply(manager)
		}
	},
}

func runReplCommand(manager chat.Manager, line string) (bool, error) {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/quit", "/exit":
		return true, nil

	case "/new":
		c := manager.CreateChat()
		fmt.Printf("Started chat %s\n", c.ID)
		return false, nil

	case "/list":
		printChatList(manager)
		return false, nil

	case "/switch", "/delete":
		if len(fields) < 2 {
			return false, errors.Errorf("usage: %s <n>", fields[0])
		}
		idx, err := strconv.Atoi(fields[1])
		chats := manager.Chats()
		if err != nil || idx < 1 || idx > len(chats) {
			return false, errors.Errorf("no chat numbered %s", fields[1])
		}
		if fields[0] == "/switch" {
			return false, manager.SelectChat(chats[idx-1].ID)
		}
		return false, manager.DeleteChat(chats[idx-1].ID)

	case "/clear":
		manager.ClearChats()
		fmt.Println("Cleared all chats")
		return false, nil

	default:
		return false, errors.Errorf("unknown command %s", fields[0])
	}
}

func printChatList(manager chat.Manager) {
	chats := manager.Chats()
	if len(chats) == 0 {
		fmt.Println("No chats")
		return
	}

	active, _ := manager.ActiveChat()
	for i, c := range chats {
		marker := " "
		if active != nil && active.ID == c.ID {
			marker = "*"
		}
		fmt.Printf("%s %2d. %s (%d messages, updated %s)\n",
			marker, i+1, c.Title, len(c.Messages), c.UpdatedAt.Format("2006-01-02 15:04"))
	}
}

func printLastReply(manager chat.Manager) {
	c, ok := manager.ActiveChat()
	if !ok || len(c.Messages) == 0 {
		return
	}

	last := c.Messages[len(c.Messages)-1]
	if last.Role == chat.RoleAssistant {
		fmt.Println(last.Content)
	}
}

func printSendError(err error) {
	if errors.Is(err, chat.ErrMissingCredential) {
		fmt.Fprintln(os.Stderr, "No API key configured. Use `gemchat set-api-key` or set GEMCHAT_API_KEY.")
		return
	}
	fmt.Fprintf(os.Stderr, "Failed to get a response: %s\n", err.Error())
}
