package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/epg-sync/epgctl/internal/shared"
	"github.com/epg-sync/epgctl/internal/storage"
	"github.com/urfave/cli/v3"
)

// keyLister is implemented by stores that can enumerate their keys.
type keyLister interface {
	Keys() ([]string, error)
}

// StorageKeys lists every key in the local store.
func (r *Runner) StorageKeys(ctx context.Context, cmd *cli.Command) error {
	store, err := r.storage()
	if err != nil {
		return err
	}

	lister, ok := store.(keyLister)
	if !ok {
		return fmt.Errorf("%w: this store cannot list keys", shared.ErrNotImplemented)
	}

	keys, err := lister.Keys()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return r.writePlain("No stored keys\n")
	}
	for _, key := range keys {
		r.writePlain("%s\n", key)
	}
	return nil
}

// StorageGet prints the value stored under a key. Tokens in the session entry are masked.
func (r *Runner) StorageGet(ctx context.Context, cmd *cli.Command) error {
	key, err := requiredArg(cmd, "key")
	if err != nil {
		return err
	}

	store, err := r.storage()
	if err != nil {
		return err
	}

	value, err := store.GetItem(key)
	if err != nil {
		return err
	}

	var data any
	if err := json.Unmarshal([]byte(value), &data); err != nil {
		return r.writePlain("%s\n", value)
	}
	if key == storage.AuthKey {
		maskToken(data)
	}
	return r.writeJSON(data, true)
}

// StorageRemove deletes a key. Removing auth-storage logs out; removing syncLogs clears the history.
func (r *Runner) StorageRemove(ctx context.Context, cmd *cli.Command) error {
	key, err := requiredArg(cmd, "key")
	if err != nil {
		return err
	}

	store, err := r.storage()
	if err != nil {
		return err
	}

	if _, err := store.GetItem(key); errors.Is(err, shared.ErrKeyMissing) {
		return err
	}
	if err := store.RemoveItem(key); err != nil {
		return err
	}

	r.logger.Info("storage key removed", "key", key)
	return r.writePlain("✓ Removed %s\n", key)
}

func maskToken(data any) {
	m, ok := data.(map[string]any)
	if !ok {
		return
	}
	if token, ok := m["token"].(string); ok && len(token) > 8 {
		m["token"] = token[:4] + "…" + token[len(token)-4:]
	}
}
