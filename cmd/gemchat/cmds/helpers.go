package cmds

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/go-go-golems/gemchat/pkg/chat"
	"github.com/go-go-golems/gemchat/pkg/gemini"
	"github.com/go-go-golems/gemchat/pkg/store"
)

func newStore() (store.Store, error) {
	switch backend := viper.GetString("store"); backend {
	case "memory":
		return store.NewInMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(viper.GetString("redis-url"))
	case "file", "":
		dir := viper.GetString("store-dir")
		if dir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				homeDir = "."
			}
			dir = filepath.Join(homeDir, ".gemchat", "store")
		}
		return store.NewFileStore(dir), nil
	default:
		return nil, errors.Errorf("unknown store backend %q", backend)
	}
}

func newGenerationClient() *gemini.Client {
	var options []gemini.ClientOption
	if model := viper.GetString("model"); model != "" {
		options = append(options, gemini.WithModel(model))
	}
	return gemini.NewClient(options...)
}

// newManager wires the manager with the configured store, the Gemini
// client, and the API key from flag/env/config as external default. A
// persisted key is used when no default is configured.
func newManager() (*chat.ManagerImpl, error) {
	kv, err := newStore()
	if err != nil {
		return nil, err
	}

	return chat.NewManager(
		chat.WithStore(store.NewChatStore(kv)),
		chat.WithGenerationClient(newGenerationClient()),
		chat.WithDefaultCredential(viper.GetString("api-key")),
	), nil
}
