package invitation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kdurkin/digitduel/internal/models"
)

const (
	// Key prefixes for Redis
	invitationKeyPrefix = "invitation:"
	invitationIndexKey  = "invitations"

	// Channel prefixes
	eventChannelPrefix    = "invitation.events:"
	incomingChannelPrefix = "invitation.incoming:"

	eventDeleted = "deleted"
	eventUpdated = "updated"
)

// Hash field names
const (
	fieldID        = "id"
	fieldFromID    = "fromId"
	fieldFromName  = "fromName"
	fieldToName    = "toName"
	fieldDigits    = "digitLength"
	fieldTimeLimit = "timeLimitSeconds"
	fieldStatus    = "status"
	fieldCreatedAt = "createdAt"
)

// ErrInvitationNotFound is returned when an invitation is absent
var ErrInvitationNotFound = errors.New("invitation not found")

// Config holds configuration for the Redis invitation repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis.
// Invitations are hashes; creation additionally notifies the
// recipient's incoming channel with the invitation id.
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed invitation repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

func invitationKey(id string) string {
	return invitationKeyPrefix + id
}

func eventChannel(id string) string {
	return eventChannelPrefix + id
}

func incomingChannel(displayName string) string {
	return incomingChannelPrefix + displayName
}

// CreateInvitation writes a new pending invitation to Redis
func (r *redisRepository) CreateInvitation(ctx context.Context, input *CreateInvitationInput) error {
	if input == nil || input.Invitation == nil || input.Invitation.ID == "" {
		return errors.New("input and invitation with ID are required")
	}

	inv := input.Invitation
	fields := map[string]string{
		fieldID:        inv.ID,
		fieldFromID:    inv.FromID,
		fieldFromName:  inv.FromName,
		fieldToName:    inv.ToName,
		fieldDigits:    strconv.Itoa(inv.DigitLength),
		fieldTimeLimit: strconv.Itoa(inv.TimeLimitSeconds),
		fieldStatus:    string(inv.Status),
		fieldCreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339Nano),
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, invitationKey(inv.ID), fields)
	pipe.SAdd(ctx, invitationIndexKey, inv.ID)
	pipe.Publish(ctx, incomingChannel(inv.ToName), inv.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

// GetInvitation reads an invitation by id from Redis
func (r *redisRepository) GetInvitation(ctx context.Context, input *GetInvitationInput) (*models.Invitation, error) {
	if input == nil || input.InvitationID == "" {
		return nil, errors.New("input and invitation ID cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, invitationKey(input.InvitationID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if len(fields) == 0 {
		return nil, ErrInvitationNotFound
	}

	return decodeInvitation(input.InvitationID, fields)
}

// UpdateStatus moves an invitation through its lifecycle and notifies
// the sender's subscription
func (r *redisRepository) UpdateStatus(ctx context.Context, input *UpdateStatusInput) error {
	if input == nil || input.InvitationID == "" {
		return errors.New("input and invitation ID cannot be empty")
	}

	exists, err := r.client.Exists(ctx, invitationKey(input.InvitationID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check invitation: %w", err)
	}

	if exists == 0 {
		return ErrInvitationNotFound
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, invitationKey(input.InvitationID), fieldStatus, string(input.Status))
	pipe.Publish(ctx, eventChannel(input.InvitationID), eventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update invitation: %w", err)
	}

	return nil
}

// DeleteInvitation removes an invitation. Deleting an absent
// invitation is not an error.
func (r *redisRepository) DeleteInvitation(ctx context.Context, input *DeleteInvitationInput) error {
	if input == nil || input.InvitationID == "" {
		return errors.New("input and invitation ID cannot be empty")
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, invitationKey(input.InvitationID))
	pipe.SRem(ctx, invitationIndexKey, input.InvitationID)
	pipe.Publish(ctx, eventChannel(input.InvitationID), eventDeleted)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete invitation: %w", err)
	}

	return nil
}

// ListInvitationIDs returns all invitation ids in the index
func (r *redisRepository) ListInvitationIDs(ctx context.Context, _ *ListInvitationIDsInput) (*ListInvitationIDsOutput, error) {
	ids, err := r.client.SMembers(ctx, invitationIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}

	return &ListInvitationIDsOutput{InvitationIDs: ids}, nil
}

// SubscribeIncoming delivers pending invitations addressed to a
// display name. Pending invitations that already exist are delivered
// first, then new ones as they arrive.
func (r *redisRepository) SubscribeIncoming(ctx context.Context, input *SubscribeIncomingInput) (*Subscription, error) {
	if input == nil || input.DisplayName == "" {
		return nil, errors.New("input and display name cannot be empty")
	}

	pubsub := r.client.Subscribe(ctx, incomingChannel(input.DisplayName))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to incoming invitations: %w", err)
	}

	events := make(chan *Event, 8)
	go r.pumpIncoming(ctx, input.DisplayName, pubsub, events)

	return NewSubscription(events, func() { _ = pubsub.Close() }), nil
}

func (r *redisRepository) pumpIncoming(ctx context.Context, displayName string, pubsub *redis.PubSub, out chan<- *Event) {
	defer close(out)

	send := func(ev *Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	deliver := func(id string) bool {
		inv, err := r.GetInvitation(ctx, &GetInvitationInput{InvitationID: id})
		if err != nil {
			return true
		}
		if inv.ToName != displayName || inv.Status != models.InvitationStatusPending {
			return true
		}
		return send(&Event{Invitation: inv, ID: id})
	}

	// Backfill invitations that were already waiting
	if listed, err := r.ListInvitationIDs(ctx, &ListInvitationIDsInput{}); err == nil {
		for _, id := range listed.InvitationIDs {
			if !deliver(id) {
				return
			}
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
			if !deliver(msg.Payload) {
				return
			}
		}
	}
}

// SubscribeInvitation delivers lifecycle changes of one invitation,
// starting with its current state if it exists
func (r *redisRepository) SubscribeInvitation(ctx context.Context, input *SubscribeInvitationInput) (*Subscription, error) {
	if input == nil || input.InvitationID == "" {
		return nil, errors.New("input and invitation ID cannot be empty")
	}

	pubsub := r.client.Subscribe(ctx, eventChannel(input.InvitationID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to invitation: %w", err)
	}

	events := make(chan *Event, 8)
	go r.pumpInvitation(ctx, input.InvitationID, pubsub, events)

	return NewSubscription(events, func() { _ = pubsub.Close() }), nil
}

func (r *redisRepository) pumpInvitation(ctx context.Context, id string, pubsub *redis.PubSub, out chan<- *Event) {
	defer close(out)

	send := func(ev *Event) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if current, err := r.GetInvitation(ctx, &GetInvitationInput{InvitationID: id}); err == nil {
		if !send(&Event{Invitation: current, ID: id}) {
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

			var ev *Event
			if msg.Payload == eventDeleted {
				ev = &Event{ID: id, Deleted: true}
			} else {
				current, err := r.GetInvitation(ctx, &GetInvitationInput{InvitationID: id})
				switch {
				case err == nil:
					ev = &Event{Invitation: current, ID: id}
				case errors.Is(err, ErrInvitationNotFound):
					ev = &Event{ID: id, Deleted: true}
				default:
					continue
				}
			}

			if !send(ev) {
				return
			}
		}
	}
}

func decodeInvitation(id string, fields map[string]string) (*models.Invitation, error) {
	digits, err := strconv.Atoi(fields[fieldDigits])
	if err != nil {
		return nil, fmt.Errorf("failed to decode digit length: %w", err)
	}

	timeLimit, err := strconv.Atoi(fields[fieldTimeLimit])
	if err != nil {
		return nil, fmt.Errorf("failed to decode time limit: %w", err)
	}

	inv := &models.Invitation{
		ID:               id,
		FromID:           fields[fieldFromID],
		FromName:         fields[fieldFromName],
		ToName:           fields[fieldToName],
		DigitLength:      digits,
		TimeLimitSeconds: timeLimit,
		Status:           models.InvitationStatus(fields[fieldStatus]),
	}

	if v := fields[fieldCreatedAt]; v != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("failed to decode createdAt: %w", err)
		}
		inv.CreatedAt = createdAt
	}

	return inv, nil
}
