package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/megapoly/internal/models"
)

const (
	// Key prefixes for Redis
	seatKeyPrefix      = "seat:"
	gameSeatsKeyPrefix = "game_seats:"
)

// ErrSeatNotFound is returned when an identity holds no seat
var ErrSeatNotFound = errors.New("seat not found")

// Config holds configuration for the Redis seat repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed seat repository
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

// SaveSeat persists a seat to Redis
func (r *redisRepository) SaveSeat(ctx context.Context, input *SaveSeatInput) error {
	if input == nil || input.Seat == nil {
		return errors.New("input and seat cannot be nil")
	}

	seat := input.Seat
	if seat.ExternalID == "" || seat.GameID == "" {
		return errors.New("seat external ID and game ID cannot be empty")
	}

	previous, err := r.GetSeat(ctx, &GetSeatInput{ExternalID: seat.ExternalID})
	if err != nil && !errors.Is(err, ErrSeatNotFound) {
		return err
	}

	seatJSON, err := json.Marshal(seat)
	if err != nil {
		return fmt.Errorf("failed to marshal seat: %w", err)
	}

	pipe := r.client.TxPipeline()

	// Leaving a game for another one drops the old binding
	if previous != nil && previous.GameID != seat.GameID {
		pipe.SRem(ctx, gameSeatsKeyPrefix+previous.GameID, seat.ExternalID)
	}
	pipe.Set(ctx, seatKeyPrefix+seat.ExternalID, seatJSON, 0)
	pipe.SAdd(ctx, gameSeatsKeyPrefix+seat.GameID, seat.ExternalID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save seat: %w", err)
	}

	return nil
}

// GetSeat retrieves a seat by external identity from Redis
func (r *redisRepository) GetSeat(ctx context.Context, input *GetSeatInput) (*models.Seat, error) {
	if input == nil || input.ExternalID == "" {
		return nil, errors.New("input and external ID cannot be empty")
	}

	seatJSON, err := r.client.Get(ctx, seatKeyPrefix+input.ExternalID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSeatNotFound
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}

	var seat models.Seat
	if err := json.Unmarshal([]byte(seatJSON), &seat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seat: %w", err)
	}

	return &seat, nil
}

// GetSeatsInGame retrieves all seats in a game from Redis
func (r *redisRepository) GetSeatsInGame(ctx context.Context, input *GetSeatsInGameInput) (*GetSeatsInGameOutput, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	externalIDs, err := r.client.SMembers(ctx, gameSeatsKeyPrefix+input.GameID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get seat IDs for game: %w", err)
	}

	if len(externalIDs) == 0 {
		return &GetSeatsInGameOutput{
			Seats: []*models.Seat{},
		}, nil
	}

	pipe := r.client.Pipeline()
	seatCommands := make(map[string]*redis.StringCmd, len(externalIDs))
	for _, externalID := range externalIDs {
		seatCommands[externalID] = pipe.Get(ctx, seatKeyPrefix+externalID)
	}

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get seats: %w", err)
	}

	seats := make([]*models.Seat, 0, len(externalIDs))
	for externalID, cmd := range seatCommands {
		seatJSON, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to get seat %s: %w", externalID, err)
		}

		var seat models.Seat
		if err := json.Unmarshal([]byte(seatJSON), &seat); err != nil {
			return nil, fmt.Errorf("failed to unmarshal seat %s: %w", externalID, err)
		}

		// Skip identities that have since moved to another game
		if seat.GameID != input.GameID {
			continue
		}
		seats = append(seats, &seat)
	}

	sort.Slice(seats, func(i, j int) bool { return seats[i].PlayerID < seats[j].PlayerID })

	return &GetSeatsInGameOutput{
		Seats: seats,
	}, nil
}

// ReleaseSeats removes every seat still bound to a game
func (r *redisRepository) ReleaseSeats(ctx context.Context, input *ReleaseSeatsInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	out, err := r.GetSeatsInGame(ctx, &GetSeatsInGameInput{GameID: input.GameID})
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	for _, seat := range out.Seats {
		pipe.Del(ctx, seatKeyPrefix+seat.ExternalID)
	}
	pipe.Del(ctx, gameSeatsKeyPrefix+input.GameID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}

	return nil
}
