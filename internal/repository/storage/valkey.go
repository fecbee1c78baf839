package storage

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStorage - client used for game locks.
type ValkeyStorage struct {
	Connection valkey.Client
}

func NewValkeyStorage(ctx context.Context, addr string) (*ValkeyStorage, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{addr},
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	if err = pingWithBackoff(ctx, func(ctx context.Context) error {
		return client.Do(ctx, client.B().Ping().Build()).Error()
	}); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	return &ValkeyStorage{Connection: client}, nil
}

func (that *ValkeyStorage) Close() {
	that.Connection.Close()
}
