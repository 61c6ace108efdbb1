package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kdurkin/digitduel/internal/models"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix   = "session:"
	sessionIndexKey    = "sessions"
	eventChannelPrefix = "session.events:"

	// Event payloads published on a document's channel
	eventUpdated = "updated"
	eventDeleted = "deleted"
)

// ErrSessionNotFound is returned when a session document is absent
var ErrSessionNotFound = errors.New("session not found")

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// Subscription is a live feed of session snapshots
type Subscription struct {
	// Events delivers a snapshot per observed document mutation. The
	// channel is closed when the subscription ends.
	Events <-chan *Snapshot

	closeFn func()
}

// NewSubscription wraps an event channel; tests use this to fabricate
// subscription feeds
func NewSubscription(events <-chan *Snapshot, closeFn func()) *Subscription {
	return &Subscription{Events: events, closeFn: closeFn}
}

// Close ends the subscription
func (s *Subscription) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// redisRepository implements the Repository interface using Redis.
// Each session is a hash with one field per document path, so partial
// updates are single HSET writes and two clients touching disjoint
// fields never conflict. Every mutation publishes on the document's
// pub/sub channel; subscribers re-read the hash on each notification.
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func eventChannel(id string) string {
	return eventChannelPrefix + id
}

// CreateSession writes a new session document to Redis
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) error {
	if input == nil || input.Session == nil || input.Session.ID == "" {
		return errors.New("input and session with ID are required")
	}

	fields, err := encodeSession(input.Session)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, sessionKey(input.Session.ID), fields)
	pipe.SAdd(ctx, sessionIndexKey, input.Session.ID)
	pipe.Publish(ctx, eventChannel(input.Session.ID), eventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession reads the full session document from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, sessionKey(input.SessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	return decodeSession(input.SessionID, fields)
}

// UpdateFields applies partial field updates to an existing document
func (r *redisRepository) UpdateFields(ctx context.Context, input *UpdateFieldsInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	if len(input.Fields) == 0 {
		return errors.New("at least one field update is required")
	}

	exists, err := r.client.Exists(ctx, sessionKey(input.SessionID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}

	if exists == 0 {
		return ErrSessionNotFound
	}

	pipe := r.client.TxPipeline()
	for _, f := range input.Fields {
		if f.SetOnce {
			pipe.HSetNX(ctx, sessionKey(input.SessionID), f.Path, f.Value)
		} else {
			pipe.HSet(ctx, sessionKey(input.SessionID), f.Path, f.Value)
		}
	}
	pipe.Publish(ctx, eventChannel(input.SessionID), eventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	return nil
}

// DeleteSession removes a session document from Redis. Deleting an
// absent session is not an error.
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, sessionKey(input.SessionID))
	pipe.SRem(ctx, sessionIndexKey, input.SessionID)
	pipe.Publish(ctx, eventChannel(input.SessionID), eventDeleted)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// ListSessionIDs returns all session ids in the index
func (r *redisRepository) ListSessionIDs(ctx context.Context, _ *ListSessionIDsInput) (*ListSessionIDsOutput, error) {
	ids, err := r.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &ListSessionIDsOutput{SessionIDs: ids}, nil
}

// Subscribe delivers a snapshot whenever the session document changes.
// If the document already exists, the current state is delivered first;
// if it does not exist yet, nothing is delivered until it is created.
func (r *redisRepository) Subscribe(ctx context.Context, input *SubscribeInput) (*Subscription, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	pubsub := r.client.Subscribe(ctx, eventChannel(input.SessionID))

	// Confirm the subscription before reporting success
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to session: %w", err)
	}

	events := make(chan *Snapshot, 8)
	go r.pump(ctx, input.SessionID, pubsub, events)

	return NewSubscription(events, func() { _ = pubsub.Close() }), nil
}

// pump converts pub/sub notifications into decoded snapshots. It is
// the only sender on out and closes it on exit.
func (r *redisRepository) pump(ctx context.Context, sessionID string, pubsub *redis.PubSub, out chan<- *Snapshot) {
	defer close(out)

	send := func(snap *Snapshot) bool {
		select {
		case out <- snap:
			return true
		case <-ctx.Done():
			return false
		}
	}

	// Deliver the current state to late subscribers. A missing
	// document here means "not created yet", not deleted.
	if current, err := r.GetSession(ctx, &GetSessionInput{SessionID: sessionID}); err == nil {
		if !send(&Snapshot{Session: current}) {
			return
		}
	}

	msgs := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var snap *Snapshot
			if msg.Payload == eventDeleted {
				snap = &Snapshot{Deleted: true}
			} else {
				current, err := r.GetSession(ctx, &GetSessionInput{SessionID: sessionID})
				switch {
				case err == nil:
					snap = &Snapshot{Session: current}
				case errors.Is(err, ErrSessionNotFound):
					snap = &Snapshot{Deleted: true}
				default:
					// Transient read failure; the next notification
					// re-reads
					continue
				}
			}

			if !send(snap) {
				return
			}
		}
	}
}

// encodeSession flattens a session into hash fields
func encodeSession(s *models.Session) (map[string]string, error) {
	fields := map[string]string{
		FieldID:        s.ID,
		FieldDigits:    fmt.Sprintf("%d", s.DigitLength),
		FieldTimeLimit: fmt.Sprintf("%d", s.TimeLimitSeconds),
		FieldPhase:     string(s.Phase),
		FieldCreatedAt: encodeTime(s.CreatedAt),
	}

	// Set-once fields stay absent until their first write; pre-creating
	// them empty would make the HSETNX a no-op
	if s.Winner != "" {
		fields[FieldWinner] = s.Winner
	}

	if s.StartedAt != nil {
		fields[FieldStartedAt] = encodeTime(*s.StartedAt)
	}

	for _, role := range []models.Role{models.RoleInitiator, models.RoleJoiner} {
		slot := s.SlotByRole(role)
		if slot == nil {
			slot = &models.Slot{}
		}

		fields[SlotField(role, slotFieldID)] = slot.PlayerID
		fields[SlotField(role, slotFieldName)] = slot.PlayerName
		fields[SlotField(role, slotFieldSecret)] = slot.SecretNumber
		fields[SlotField(role, slotFieldReady)] = encodeBool(slot.Ready)

		if len(slot.Guesses) > 0 {
			encoded, err := json.Marshal(slot.Guesses)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal guesses: %w", err)
			}
			fields[SlotField(role, slotFieldGuesses)] = string(encoded)
		} else {
			fields[SlotField(role, slotFieldGuesses)] = ""
		}
	}

	return fields, nil
}

// decodeSession rebuilds a session from hash fields. Vacant slots
// decode to empty, non-nil slots.
func decodeSession(id string, fields map[string]string) (*models.Session, error) {
	digits, err := decodeInt(fields[FieldDigits])
	if err != nil {
		return nil, fmt.Errorf("failed to decode digit length: %w", err)
	}

	timeLimit, err := decodeInt(fields[FieldTimeLimit])
	if err != nil {
		return nil, fmt.Errorf("failed to decode time limit: %w", err)
	}

	s := &models.Session{
		ID:               id,
		DigitLength:      digits,
		TimeLimitSeconds: timeLimit,
		Phase:            models.Phase(fields[FieldPhase]),
		Winner:           fields[FieldWinner],
	}

	if v := fields[FieldCreatedAt]; v != "" {
		createdAt, err := decodeTime(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode createdAt: %w", err)
		}
		s.CreatedAt = createdAt
	}

	if v := fields[FieldStartedAt]; v != "" {
		startedAt, err := decodeTime(v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode startedAt: %w", err)
		}
		s.StartedAt = &startedAt
	}

	for _, role := range []models.Role{models.RoleInitiator, models.RoleJoiner} {
		slot := &models.Slot{
			PlayerID:     fields[SlotField(role, slotFieldID)],
			PlayerName:   fields[SlotField(role, slotFieldName)],
			SecretNumber: fields[SlotField(role, slotFieldSecret)],
			Ready:        fields[SlotField(role, slotFieldReady)] == "1",
		}

		if raw := fields[SlotField(role, slotFieldGuesses)]; raw != "" {
			if err := json.Unmarshal([]byte(raw), &slot.Guesses); err != nil {
				return nil, fmt.Errorf("failed to unmarshal %s guesses: %w", role, err)
			}
		}

		if role == models.RoleInitiator {
			s.Initiator = slot
		} else {
			s.Joiner = slot
		}
	}

	return s, nil
}
