package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kdurkin/digitduel/internal/models"
)

// Field paths within a session document. Slot-scoped paths are built
// with the Slot* helpers below.
const (
	FieldID        = "id"
	FieldDigits    = "digitLength"
	FieldTimeLimit = "timeLimitSeconds"
	FieldPhase     = "phase"
	FieldStartedAt = "startedAt"
	FieldWinner    = "winner"
	FieldCreatedAt = "createdAt"
)

// Slot field suffixes
const (
	slotFieldID      = "id"
	slotFieldName    = "name"
	slotFieldSecret  = "secret"
	slotFieldReady   = "ready"
	slotFieldGuesses = "guesses"
)

// SlotField returns the document path of a slot-scoped field, e.g.
// "initiator.ready"
func SlotField(role models.Role, field string) string {
	return fmt.Sprintf("%s.%s", role, field)
}

// FieldUpdate is one partial write to a session document. SetOnce
// fields keep the first written value; later writes are ignored, which
// makes racing writers of the same agreement harmless.
type FieldUpdate struct {
	Path    string
	Value   string
	SetOnce bool
}

// PhaseUpdate advances the session phase
func PhaseUpdate(p models.Phase) FieldUpdate {
	return FieldUpdate{Path: FieldPhase, Value: string(p)}
}

// StartedAtUpdate records the shared play-start timestamp. First write
// wins so both clients agree on the value even when they race.
func StartedAtUpdate(t time.Time) FieldUpdate {
	return FieldUpdate{Path: FieldStartedAt, Value: encodeTime(t), SetOnce: true}
}

// WinnerUpdate records the winner. Set at most once.
func WinnerUpdate(winner string) FieldUpdate {
	return FieldUpdate{Path: FieldWinner, Value: winner, SetOnce: true}
}

// SecretUpdate writes a slot's secret number
func SecretUpdate(role models.Role, secretNumber string) FieldUpdate {
	return FieldUpdate{Path: SlotField(role, slotFieldSecret), Value: secretNumber}
}

// ReadyUpdate writes a slot's readiness flag
func ReadyUpdate(role models.Role, ready bool) FieldUpdate {
	return FieldUpdate{Path: SlotField(role, slotFieldReady), Value: encodeBool(ready)}
}

// GuessesUpdate replaces a slot's guess log. Only the slot's owner
// writes this field, so the replace is effectively an append.
func GuessesUpdate(role models.Role, guesses []*models.GuessRecord) (FieldUpdate, error) {
	encoded, err := json.Marshal(guesses)
	if err != nil {
		return FieldUpdate{}, fmt.Errorf("failed to marshal guesses: %w", err)
	}

	return FieldUpdate{Path: SlotField(role, slotFieldGuesses), Value: string(encoded)}, nil
}

// OccupySlotUpdates writes a player's identity into a slot
func OccupySlotUpdates(role models.Role, id *models.Identity) []FieldUpdate {
	return []FieldUpdate{
		{Path: SlotField(role, slotFieldID), Value: id.ID},
		{Path: SlotField(role, slotFieldName), Value: id.DisplayName},
	}
}

// ClearSlotUpdates vacates a slot entirely
func ClearSlotUpdates(role models.Role) []FieldUpdate {
	return []FieldUpdate{
		{Path: SlotField(role, slotFieldID), Value: ""},
		{Path: SlotField(role, slotFieldName), Value: ""},
		{Path: SlotField(role, slotFieldSecret), Value: ""},
		{Path: SlotField(role, slotFieldReady), Value: encodeBool(false)},
		{Path: SlotField(role, slotFieldGuesses), Value: ""},
	}
}

// Snapshot is one observed state of the session document. Deleted
// snapshots mark the document as gone; Session is nil in that case.
type Snapshot struct {
	Session *models.Session
	Deleted bool
}

type CreateSessionInput struct {
	Session *models.Session
}

type GetSessionInput struct {
	SessionID string
}

type UpdateFieldsInput struct {
	SessionID string
	Fields    []FieldUpdate
}

type DeleteSessionInput struct {
	SessionID string
}

type ListSessionIDsInput struct {
}

type ListSessionIDsOutput struct {
	SessionIDs []string
}

type SubscribeInput struct {
	SessionID string
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func decodeInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
