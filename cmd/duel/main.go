package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/kdurkin/digitduel/internal/common/clock"
	"github.com/kdurkin/digitduel/internal/common/uuid"
	"github.com/kdurkin/digitduel/internal/feedback"
	"github.com/kdurkin/digitduel/internal/identity"
	"github.com/kdurkin/digitduel/internal/models"
	invitationRepo "github.com/kdurkin/digitduel/internal/repositories/invitation"
	sessionRepo "github.com/kdurkin/digitduel/internal/repositories/session"
	"github.com/kdurkin/digitduel/internal/secret"
	"github.com/kdurkin/digitduel/internal/services/lobby"
	"github.com/kdurkin/digitduel/internal/services/match"
)

func main() {
	// .env is optional; real environments set variables directly
	_ = godotenv.Load()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	playerID := getEnv("PLAYER_ID", "")
	playerName := getEnv("PLAYER_NAME", "")
	if playerID == "" || playerName == "" {
		logger.Fatal().Msg("PLAYER_ID and PLAYER_NAME environment variables are required")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	sessRepo, err := sessionRepo.NewRedis(&sessionRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session repository")
	}

	invRepo, err := invitationRepo.NewRedis(&invitationRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create invitation repository")
	}

	ident, err := identity.NewStatic(playerID, playerName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create identity provider")
	}

	matchSvc, err := match.New(&match.Config{
		SessionRepo:   sessRepo,
		Identity:      ident,
		SecretGen:     secret.New(&secret.Config{}),
		Clock:         &clock.DefaultClock{},
		UUIDGenerator: uuid.New(),
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create match service")
	}

	lobbySvc, err := lobby.New(&lobby.Config{
		InvitationRepo: invRepo,
		SessionRepo:    sessRepo,
		Identity:       ident,
		Clock:          &clock.DefaultClock{},
		UUIDGenerator:  uuid.New(),
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create lobby service")
	}

	cli := &cli{
		match:  matchSvc,
		lobby:  lobbySvc,
		log:    logger,
		stdout: os.Stdout,
	}

	if err := cli.run(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("shell exited with error")
	}
}

// cli is a line-oriented shell over the match and lobby services. One
// session is tracked at a time; its watcher prints remote changes as
// they arrive.
type cli struct {
	match  match.Service
	lobby  lobby.Service
	log    zerolog.Logger
	stdout *os.File

	// mu guards the attached session; acceptance of a sent invitation
	// attaches from another goroutine
	mu        sync.Mutex
	sessionID string
	watcher   *match.Watcher
	incoming  *lobby.WatchIncomingOutput
}

func (c *cli) session() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *cli) currentWatcher() *match.Watcher {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watcher
}

func (c *cli) run(ctx context.Context) error {
	c.printf("digitduel shell. Commands: create <digits>, join <id>, invite <name> <digits>, accept <id>, decline <id>, secret [digits], guess <digits>, status, leave, sweep, quit\n")

	if err := c.watchIncoming(ctx); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		c.printf("> ")
		if !scanner.Scan() {
			break
		}

		args := strings.Fields(scanner.Text())
		if len(args) == 0 {
			continue
		}

		if args[0] == "quit" || args[0] == "exit" {
			break
		}

		if err := c.dispatch(ctx, args); err != nil {
			c.printf("error: %v\n", err)
		}
	}

	c.teardown()
	return scanner.Err()
}

func (c *cli) dispatch(ctx context.Context, args []string) error {
	switch args[0] {
	case "create":
		if len(args) != 2 {
			return fmt.Errorf("usage: create <digits>")
		}
		digits, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("digits must be a number")
		}
		out, err := c.match.CreateSession(ctx, &match.CreateSessionInput{DigitLength: digits})
		if err != nil {
			return err
		}
		c.printf("session %s created, waiting for an opponent\n", out.SessionID)
		return c.attach(ctx, out.SessionID)

	case "join":
		if len(args) != 2 {
			return fmt.Errorf("usage: join <session-id>")
		}
		out, err := c.match.JoinSession(ctx, &match.JoinSessionInput{SessionID: args[1]})
		if err != nil {
			return err
		}
		c.printf("joined session %s as %s\n", out.Session.ID, out.Role)
		return c.attach(ctx, out.Session.ID)

	case "invite":
		if len(args) != 3 {
			return fmt.Errorf("usage: invite <display-name> <digits>")
		}
		digits, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("digits must be a number")
		}
		out, err := c.lobby.SendInvitation(ctx, &lobby.SendInvitationInput{
			ToDisplayName: args[1],
			DigitLength:   digits,
		})
		if err != nil {
			return err
		}
		c.printf("invitation %s sent to %s\n", out.InvitationID, args[1])
		return c.awaitAcceptance(ctx, out.InvitationID)

	case "accept":
		if len(args) != 2 {
			return fmt.Errorf("usage: accept <invitation-id>")
		}
		out, err := c.lobby.AcceptInvitation(ctx, &lobby.AcceptInvitationInput{InvitationID: args[1]})
		if err != nil {
			return err
		}
		c.printf("invitation accepted, session %s\n", out.SessionID)
		return c.attach(ctx, out.SessionID)

	case "decline":
		if len(args) != 2 {
			return fmt.Errorf("usage: decline <invitation-id>")
		}
		_, err := c.lobby.DeclineInvitation(ctx, &lobby.DeclineInvitationInput{InvitationID: args[1]})
		if err != nil {
			return err
		}
		c.printf("invitation declined\n")
		return nil

	case "secret":
		sessionID := c.session()
		if sessionID == "" {
			return fmt.Errorf("no session; create, join, or accept first")
		}
		secretNumber := ""
		if len(args) > 1 {
			secretNumber = args[1]
		}
		out, err := c.match.SetSecret(ctx, &match.SetSecretInput{
			SessionID:    sessionID,
			SecretNumber: secretNumber,
		})
		if err != nil {
			return err
		}
		c.printf("secret committed: %s\n", out.SecretNumber)
		return nil

	case "guess":
		sessionID := c.session()
		if sessionID == "" {
			return fmt.Errorf("no session; create, join, or accept first")
		}
		if len(args) != 2 {
			return fmt.Errorf("usage: guess <digits>")
		}
		out, err := c.match.SubmitGuess(ctx, &match.SubmitGuessInput{
			SessionID: sessionID,
			Guess:     args[1],
		})
		if err != nil {
			return err
		}
		c.printf("%s -> %s\n", out.Record.Value, formatFeedback(out.Record.Feedback))
		if out.Winning {
			c.printf("correct! you win\n")
		}
		return nil

	case "status":
		w := c.currentWatcher()
		if w == nil {
			return fmt.Errorf("no session; create, join, or accept first")
		}
		snap := w.Snapshot()
		if snap == nil {
			c.printf("session %s: waiting for first snapshot\n", c.session())
			return nil
		}
		c.printf("session %s: phase=%s remaining=%s\n", snap.ID, w.Phase(), w.Remaining().Round(time.Second))
		return nil

	case "leave":
		sessionID := c.session()
		if sessionID == "" {
			return fmt.Errorf("no session to leave")
		}
		out, err := c.match.LeaveSession(ctx, &match.LeaveSessionInput{SessionID: sessionID})
		if err != nil {
			return err
		}
		if out.Deleted {
			c.printf("session deleted\n")
		} else {
			c.printf("left session\n")
		}
		c.detach()
		return nil

	case "sweep":
		sessions, err := c.match.CleanupStale(ctx, &match.CleanupStaleInput{})
		if err != nil {
			return err
		}
		invitations, err := c.lobby.CleanupStale(ctx, &lobby.CleanupStaleInput{})
		if err != nil {
			return err
		}
		c.printf("swept %d sessions, %d invitations\n", sessions.SessionsRemoved, invitations.InvitationsRemoved)
		return nil

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// attach points the shell at a session and starts its watcher
func (c *cli) attach(ctx context.Context, sessionID string) error {
	c.detach()

	out, err := c.match.WatchSession(ctx, &match.WatchSessionInput{
		SessionID: sessionID,
		Events: match.WatcherEvents{
			OnPhase: func(phase models.Phase, _ *models.Session) {
				c.printf("\n[session] phase: %s\n> ", phase)
			},
			OnOpponentGuess: func(record *models.GuessRecord) {
				c.printf("\n[opponent] %s -> %s\n> ", record.Value, formatFeedback(record.Feedback))
			},
			OnResult: func(result *models.GameResult) {
				c.printf("\n[session] over: %s after %d guesses\n> ", result.Outcome, result.GuessCount)
			},
			OnDeleted: func() {
				c.printf("\n[session] the session was ended\n> ")
			},
		},
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = sessionID
	c.watcher = out.Watcher
	c.mu.Unlock()
	return nil
}

func (c *cli) detach() {
	c.mu.Lock()
	w := c.watcher
	c.watcher = nil
	c.sessionID = ""
	c.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// watchIncoming prints invitations addressed to this player as they
// arrive
func (c *cli) watchIncoming(ctx context.Context) error {
	out, err := c.lobby.WatchIncoming(ctx, &lobby.WatchIncomingInput{})
	if err != nil {
		return err
	}
	c.incoming = out

	go func() {
		for inv := range out.Invitations {
			c.printf("\n[lobby] %s invites you to a %d-digit duel (accept %s)\n> ", inv.FromName, inv.DigitLength, inv.ID)
		}
	}()

	return nil
}

// awaitAcceptance follows the sent invitation until the other side
// resolves it, then attaches to the created session
func (c *cli) awaitAcceptance(ctx context.Context, invitationID string) error {
	out, err := c.lobby.WatchInvitation(ctx, &lobby.WatchInvitationInput{InvitationID: invitationID})
	if err != nil {
		return err
	}

	go func() {
		defer out.Close()
		for update := range out.Updates {
			if update.Deleted {
				c.printf("\n[lobby] invitation withdrawn\n> ")
				return
			}
			switch update.Invitation.Status {
			case models.InvitationStatusAccepted:
				c.printf("\n[lobby] %s accepted, joining session %s\n> ", update.Invitation.ToName, update.Invitation.ID)
				if err := c.attach(ctx, update.Invitation.ID); err != nil {
					c.printf("\nerror: %v\n> ", err)
				}
				return
			case models.InvitationStatusDeclined:
				c.printf("\n[lobby] %s declined\n> ", update.Invitation.ToName)
				return
			}
		}
	}()

	return nil
}

func (c *cli) teardown() {
	c.detach()
	if c.incoming != nil {
		c.incoming.Close()
	}
}

func (c *cli) printf(format string, args ...any) {
	fmt.Fprintf(c.stdout, format, args...)
}

func formatFeedback(codes []feedback.Code) string {
	parts := make([]string, len(codes))
	for i, code := range codes {
		parts[i] = string(code)
	}
	return strings.Join(parts, " ")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
