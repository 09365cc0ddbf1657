package cmds

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/go-go-golems/gemchat/pkg/attachments"
	"github.com/go-go-golems/gemchat/pkg/chat"
)

var SendCmd = &cobra.Command{
	Use:   "send [prompt]",
	Short: "Send a single prompt, optionally with a file attachment",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath, _ := cmd.Flags().GetString("file")
		prompt := strings.Join(args, " ")

		if filePath == "" && prompt == "" {
			return errors.New("either a prompt or --file is required")
		}

		manager, err := newManager()
		if err != nil {
			return err
		}

		if filePath == "" {
			if err := manager.SendMessage(cmd.Context(), prompt); err != nil {
				printSendError(err)
				return err
			}
			printLastReply(manager)
			return nil
		}

		upload, err := loadUpload(filePath)
		if err != nil {
			return err
		}

		if err := manager.SendFileMessage(cmd.Context(), upload, prompt); err != nil {
			printSendError(err)
			return err
		}
		printLastReply(manager)
		return nil
	},
}

// loadUpload reads and validates an attachment at the input boundary.
// Invalid payloads are rejected before the manager is ever invoked.
func loadUpload(path string) (chat.FileUpload, error) {
	mediaType := attachments.MediaTypeForFile(path)
	if mediaType == "" {
		return chat.FileUpload{}, errors.Wrapf(attachments.ErrUnsupportedMediaType, "%s", filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return chat.FileUpload{}, errors.Wrap(err, "failed to stat attachment")
	}

	if err := attachments.Validate(mediaType, info.Size()); err != nil {
		return chat.FileUpload{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return chat.FileUpload{}, errors.Wrap(err, "failed to read attachment")
	}

	return chat.FileUpload{
		Name:      filepath.Base(path),
		MediaType: mediaType,
		Data:      data,
		Ref:       path,
	}, nil
}

func init() {
	SendCmd.Flags().String("file", "", "Path to an image or PDF to attach")
}
