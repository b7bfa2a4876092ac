package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/megapoly/internal/models"
)

const (
	// Key prefixes for Redis
	ledgerKeyPrefix = "ledger:"
	totalsKeyPrefix = "ledger_totals:"

	paidField     = "paid:"
	receivedField = "received:"
)

// Config holds configuration for the Redis ledger repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed ledger repository
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

// AddTransfers appends transfers to the ledger and updates player totals
func (r *redisRepository) AddTransfers(ctx context.Context, input *AddTransfersInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}
	if len(input.Transfers) == 0 {
		return nil
	}

	values := make([]any, 0, len(input.Transfers))
	for _, transfer := range input.Transfers {
		transferJSON, err := json.Marshal(transfer)
		if err != nil {
			return fmt.Errorf("failed to marshal transfer: %w", err)
		}
		values = append(values, transferJSON)
	}

	totalsKey := totalsKeyPrefix + input.GameID
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, ledgerKeyPrefix+input.GameID, values...)
	for _, transfer := range input.Transfers {
		if transfer.FromPlayerID != nil {
			pipe.HIncrBy(ctx, totalsKey, paidField+strconv.Itoa(*transfer.FromPlayerID), int64(transfer.Amount))
		}
		if transfer.ToPlayerID != nil {
			pipe.HIncrBy(ctx, totalsKey, receivedField+strconv.Itoa(*transfer.ToPlayerID), int64(transfer.Amount))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add transfers: %w", err)
	}

	return nil
}

// GetTransfersForGame retrieves every transfer of a game in commit order
func (r *redisRepository) GetTransfersForGame(ctx context.Context, input *GetTransfersForGameInput) (*GetTransfersForGameOutput, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	raw, err := r.client.LRange(ctx, ledgerKeyPrefix+input.GameID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transfers for game: %w", err)
	}

	output := &GetTransfersForGameOutput{
		Transfers: make([]models.Transfer, 0, len(raw)),
	}
	for i, transferJSON := range raw {
		var transfer models.Transfer
		if err := json.Unmarshal([]byte(transferJSON), &transfer); err != nil {
			return nil, fmt.Errorf("failed to unmarshal transfer %d: %w", i, err)
		}
		output.Transfers = append(output.Transfers, transfer)
	}

	return output, nil
}

// GetPlayerTotals retrieves per-player paid and received sums
func (r *redisRepository) GetPlayerTotals(ctx context.Context, input *GetPlayerTotalsInput) (*GetPlayerTotalsOutput, error) {
	if input == nil || input.GameID == "" {
		return nil, errors.New("input and game ID cannot be empty")
	}

	fields, err := r.client.HGetAll(ctx, totalsKeyPrefix+input.GameID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get player totals: %w", err)
	}

	byPlayer := make(map[int]*PlayerTotals)
	for field, value := range fields {
		amount, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("invalid total %q for %s: %w", value, field, err)
		}

		kind, idText, ok := strings.Cut(field, ":")
		if !ok {
			continue
		}
		playerID, err := strconv.Atoi(idText)
		if err != nil {
			continue
		}

		totals, ok := byPlayer[playerID]
		if !ok {
			totals = &PlayerTotals{PlayerID: playerID}
			byPlayer[playerID] = totals
		}
		switch kind + ":" {
		case paidField:
			totals.Paid = amount
		case receivedField:
			totals.Received = amount
		}
	}

	output := &GetPlayerTotalsOutput{
		Totals: make([]PlayerTotals, 0, len(byPlayer)),
	}
	for _, totals := range byPlayer {
		output.Totals = append(output.Totals, *totals)
	}
	sort.Slice(output.Totals, func(i, j int) bool {
		return output.Totals[i].PlayerID < output.Totals[j].PlayerID
	})

	return output, nil
}

// DeleteTransfers removes a game's ledger and totals
func (r *redisRepository) DeleteTransfers(ctx context.Context, input *DeleteTransfersInput) error {
	if input == nil || input.GameID == "" {
		return errors.New("input and game ID cannot be empty")
	}

	if err := r.client.Del(ctx, ledgerKeyPrefix+input.GameID, totalsKeyPrefix+input.GameID).Err(); err != nil {
		return fmt.Errorf("failed to delete transfers: %w", err)
	}

	return nil
}
