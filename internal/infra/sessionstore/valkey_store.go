package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/keto-dashboard/internal/domain/dashboard"
)

// ValkeyStore keeps sessions in a Valkey-compatible database with a server side TTL.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "ketodash"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Create stores a new session. Session IDs are random UUIDs, so a plain SET suffices.
func (s *ValkeyStore) Create(ctx context.Context, session dashboard.Session, ttl time.Duration) error {
	return s.Save(ctx, session, ttl)
}

func (s *ValkeyStore) Get(ctx context.Context, id uuid.UUID) (dashboard.Session, bool, error) {
	cmd := s.client.B().Get().Key(s.sessionKey(id)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return dashboard.Session{}, false, nil
		}
		return dashboard.Session{}, false, err
	}
	var session dashboard.Session
	if err := json.Unmarshal([]byte(payload), &session); err != nil {
		return dashboard.Session{}, false, err
	}
	return session, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, session dashboard.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.setString(ctx, s.sessionKey(session.ID), string(payload), ttl)
}

func (s *ValkeyStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.sessionKey(id)).Build()).Error()
}

func (s *ValkeyStore) setString(ctx context.Context, key, value string, ttl time.Duration) error {
	builder := s.client.B().Set().Key(key).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		// EX has second granularity.
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) sessionKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, id)
}

var _ dashboard.SessionStore = (*ValkeyStore)(nil)
