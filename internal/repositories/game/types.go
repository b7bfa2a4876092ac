package game

import "github.com/KirkDiggler/megapoly/internal/models"

type SaveGameInput struct {
	Game *models.Game
}

type GetGameInput struct {
	GameID string
}

type GetGameByChannelInput struct {
	ChannelID string
}

type DeleteGameInput struct {
	GameID string
}

type ListGamesInput struct {
	Status models.GameStatus
}

type ListGamesOutput struct {
	Games []*models.Game
}
