package game

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
	gameKeyPrefix      = "game:"
	channelKeyPrefix   = "channel:"
	statusSetKeyPrefix = "games:"
	statusHashKey      = "game_status"
)

// ErrGameNotFound is returned when a game is not found
var ErrGameNotFound = errors.New("game not found")

var statuses = []models.GameStatus{
	models.GameStatusLobby,
	models.GameStatusPlaying,
	models.GameStatusFinished,
}

// Config holds configuration for the Redis game repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed game repository
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

func gameKey(id string) string {
	return gameKeyPrefix + id
}

func statusKey(status models.GameStatus) string {
	return statusSetKeyPrefix + string(status)
}

// SaveGame persists a game snapshot to Redis. Snapshots older than the
// stored version are ignored so a late write never rolls a game back.
func (r *redisRepository) SaveGame(ctx context.Context, input *SaveGameInput) error {
	if input == nil || input.Game == nil {
		return errors.New("input and game cannot be nil")
	}
	game := input.Game
	if game.ID == "" {
		return errors.New("game ID cannot be empty")
	}

	stored, err := r.GetGame(ctx, &GetGameInput{GameID: game.ID})
	switch {
	case errors.Is(err, ErrGameNotFound):
	case err != nil:
		return err
	case stored.Version > game.Version:
		return nil
	}

	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, gameKey(game.ID), gameJSON, 0)
	pipe.HSet(ctx, statusHashKey, game.ID, string(game.Status))
	for _, status := range statuses {
		if status == game.Status {
			pipe.SAdd(ctx, statusKey(status), game.ID)
		} else {
			pipe.SRem(ctx, statusKey(status), game.ID)
		}
	}
	if game.ChannelID != "" {
		pipe.Set(ctx, channelKeyPrefix+game.ChannelID, game.ID, 0)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}
	return nil
}

// GetGame retrieves a game by ID from Redis
func (r *redisRepository) GetGame(ctx context.Context, input *GetGameInput) (*models.Game, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	gameJSON, err := r.client.Get(ctx, gameKey(input.GameID)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	var game models.Game
	if err := json.Unmarshal([]byte(gameJSON), &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

// GetGameByChannel retrieves a game by channel ID from Redis
func (r *redisRepository) GetGameByChannel(ctx context.Context, input *GetGameByChannelInput) (*models.Game, error) {
	if input == nil || input.ChannelID == "" {
		return nil, errors.New("input and channel ID cannot be empty")
	}

	gameID, err := r.client.Get(ctx, channelKeyPrefix+input.ChannelID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game ID for channel: %w", err)
	}

	return r.GetGame(ctx, &GetGameInput{
		GameID: gameID,
	})
}

// DeleteGame removes a game from Redis
func (r *redisRepository) DeleteGame(ctx context.Context, input *DeleteGameInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	game, err := r.GetGame(ctx, &GetGameInput{
		GameID: input.GameID,
	})
	if err != nil {
		return err
	}

	// The channel may have moved on to a newer game
	var channelOwner string
	if game.ChannelID != "" {
		channelOwner, err = r.client.Get(ctx, channelKeyPrefix+game.ChannelID).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to get game ID for channel: %w", err)
		}
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, gameKey(input.GameID))
	pipe.HDel(ctx, statusHashKey, input.GameID)
	for _, status := range statuses {
		pipe.SRem(ctx, statusKey(status), input.GameID)
	}
	if channelOwner == input.GameID {
		pipe.Del(ctx, channelKeyPrefix+game.ChannelID)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}

	return nil
}

// ListGames retrieves every game with a status, ordered by creation time
func (r *redisRepository) ListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	if input == nil || input.Status == "" {
		return nil, errors.New("input and status cannot be empty")
	}

	gameIDs, err := r.client.SMembers(ctx, statusKey(input.Status)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game IDs: %w", err)
	}

	if len(gameIDs) == 0 {
		return &ListGamesOutput{
			Games: []*models.Game{},
		}, nil
	}

	// Get all games in one round trip
	pipe := r.client.Pipeline()
	gameCommands := make(map[string]*redis.StringCmd, len(gameIDs))
	for _, gameID := range gameIDs {
		gameCommands[gameID] = pipe.Get(ctx, gameKey(gameID))
	}

	// redis.Nil from a vanished game surfaces here and is handled per command
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	games := make([]*models.Game, 0, len(gameIDs))
	for gameID, cmd := range gameCommands {
		gameJSON, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// Game was deleted between getting the IDs and fetching the game
				continue
			}
			return nil, fmt.Errorf("failed to get game %s: %w", gameID, err)
		}

		var game models.Game
		if err := json.Unmarshal([]byte(gameJSON), &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game %s: %w", gameID, err)
		}

		games = append(games, &game)
	}

	sort.Slice(games, func(i, j int) bool {
		if games[i].CreatedAt.Equal(games[j].CreatedAt) {
			return games[i].ID < games[j].ID
		}
		return games[i].CreatedAt.Before(games[j].CreatedAt)
	})

	return &ListGamesOutput{
		Games: games,
	}, nil
}
