package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/KirkDiggler/megapoly/internal/common/apperr"
	diceMocks "github.com/KirkDiggler/megapoly/internal/dice/mocks"
	"github.com/KirkDiggler/megapoly/internal/models"
	"github.com/KirkDiggler/megapoly/internal/services/commentary/mocks"
)

type CommentaryTestSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	roller    *diceMocks.MockRoller
	completer *mocks.MockCompleter
	game      *models.Game
}

func (s *CommentaryTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.roller = diceMocks.NewMockRoller(s.ctrl)
	s.completer = mocks.NewMockCompleter(s.ctrl)

	s.game = &models.Game{
		ID: "ABC123",
		Players: []models.Player{
			{ID: 1, Name: "Alice", Money: 1400, Position: 3, Properties: []int{3}},
			{ID: 2, Name: "Bob", Money: 1500},
		},
		Tiles: []models.Tile{
			{ID: 0, Name: "VIA!", Type: models.TileTypeStart},
			{ID: 1, Name: "Vicolo Corto", Type: models.TileTypeProperty, Price: 60},
			{ID: 2, Name: "Truffa", Type: models.TileTypeScam},
			{ID: 3, Name: "Vicolo Stretto", Type: models.TileTypeProperty, Price: 60, OwnerID: models.IntPtr(1)},
		},
	}
}

func (s *CommentaryTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestCommentaryTestSuite(t *testing.T) {
	suite.Run(t, new(CommentaryTestSuite))
}

func (s *CommentaryTestSuite) newService(completer Completer, timeout time.Duration) Service {
	svc, err := NewService(&Config{
		Completer: completer,
		Timeout:   timeout,
		Roller:    s.roller,
	})
	s.Require().NoError(err)
	return svc
}

func (s *CommentaryTestSuite) TestNewServiceValidatesConfig() {
	_, err := NewService(nil)
	s.Error(err)

	_, err = NewService(&Config{})
	s.Error(err)
}

func (s *CommentaryTestSuite) TestCommentaryFromCompleter() {
	svc := s.newService(s.completer, time.Second)

	s.completer.EXPECT().
		Complete(gomock.Any(), oracleSystemPrompt, gomock.Any()).
		DoAndReturn(func(ctx context.Context, system, prompt string) (string, error) {
			s.Contains(prompt, "player=Alice")
			s.Contains(prompt, "cash=1400")
			s.Contains(prompt, "tile=Vicolo Stretto")
			s.Contains(prompt, "action=BUY_PROPERTY")
			_, hasDeadline := ctx.Deadline()
			s.True(hasDeadline)
			return "  Hold the brown set and squeeze.  ", nil
		})

	out, err := svc.GetCommentary(s.ctx, &GetCommentaryInput{
		Game:     s.game,
		PlayerID: 1,
		Action:   models.ActionBuyProperty,
	})
	s.Require().NoError(err)
	s.Equal("Hold the brown set and squeeze.", out.Text)
	s.Equal(SourceAI, out.Source)
}

func (s *CommentaryTestSuite) TestFallbackWhenCompleterFails() {
	svc := s.newService(s.completer, time.Second)

	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("rate limited"))
	s.roller.EXPECT().Intn(3).Return(1)

	out, err := svc.GetCommentary(s.ctx, &GetCommentaryInput{
		Game:     s.game,
		PlayerID: 1,
		Action:   models.ActionBuyProperty,
	})
	s.Require().NoError(err)
	s.Equal(SourceFallback, out.Source)
	s.Equal("Another deed for Alice. Liquidity is a state of mind.", out.Text)
}

func (s *CommentaryTestSuite) TestFallbackWhenCompleterIsSlow() {
	svc := s.newService(s.completer, 20*time.Millisecond)

	s.completer.EXPECT().Complete(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _, _ string) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})
	s.roller.EXPECT().Intn(gomock.Any()).Return(0)

	out, err := svc.GetCommentary(s.ctx, &GetCommentaryInput{Game: s.game, PlayerID: 2, Action: models.ActionRollDice})
	s.Require().NoError(err)
	s.Equal(SourceFallback, out.Source)
}

func (s *CommentaryTestSuite) TestFallbackWithoutCompleter() {
	svc := s.newService(nil, 0)
	s.roller.EXPECT().Intn(2).Return(0)

	s.game.Players[1].Bankrupt = true
	out, err := svc.GetCommentary(s.ctx, &GetCommentaryInput{Game: s.game, PlayerID: 2, Action: models.ActionEndTurn})
	s.Require().NoError(err)
	s.Equal("Bob is wiped out. The market is merciless.", out.Text)
}

func (s *CommentaryTestSuite) TestUnknownPlayer() {
	svc := s.newService(nil, 0)

	_, err := svc.GetCommentary(s.ctx, &GetCommentaryInput{Game: s.game, PlayerID: 9})
	s.ErrorIs(err, apperr.ErrNotFound)
}

func (s *CommentaryTestSuite) TestKindOf() {
	jailed := &models.Player{IsJailed: true}
	s.Equal(EventJail, KindOf(models.ActionRollDice, jailed))
	s.Equal(EventAuction, KindOf(models.ActionBidAuction, &models.Player{}))
	s.Equal(EventManage, KindOf(models.ActionUpgradeProperty, &models.Player{}))
	s.Equal(EventGeneric, KindOf(models.ActionStartGame, nil))
}

func (s *CommentaryTestSuite) TestStatusMessage() {
	svc := s.newService(nil, 0)
	s.roller.EXPECT().Intn(2).Return(1)

	out, err := svc.GetStatusMessage(s.ctx, &GetStatusMessageInput{
		Status:     models.GameStatusFinished,
		WinnerName: "Alice",
	})
	s.Require().NoError(err)
	s.Equal("All hail Alice, last tycoon standing!", out.Message)
}

func (s *CommentaryTestSuite) TestErrorMessageCarriesReason() {
	svc := s.newService(nil, 0)
	s.roller.EXPECT().Intn(2).Return(0)

	out, err := svc.GetErrorMessage(s.ctx, &GetErrorMessageInput{
		PlayerName: "Bob",
		Code:       apperr.CodeInsufficientFunds,
		Reason:     "Bob has only $40M",
	})
	s.Require().NoError(err)
	s.Equal("Insufficient Funds", out.Title)
	s.Equal("Nice try, Bob, but your wallet says no. (Bob has only $40M)", out.Message)
}

func (s *CommentaryTestSuite) TestOpenAICompleter() {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Equal(http.MethodPost, r.Method)
		s.True(strings.HasSuffix(r.URL.Path, "/chat/completions"))
		s.Equal("Bearer test-key", r.Header.Get("Authorization"))

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			MaxTokens int `json:"max_tokens"`
		}
		s.NoError(json.NewDecoder(r.Body).Decode(&body))
		s.Equal("gpt-4o-mini", body.Model)
		s.Equal(200, body.MaxTokens)
		s.Require().Len(body.Messages, 2)
		s.Equal("system", body.Messages[0].Role)
		s.Equal("user", body.Messages[1].Role)
		s.Equal("what now?", body.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "Mortgage nothing. Buy railroads."}
			}]
		}`))
	}))
	defer server.Close()

	completer, err := NewOpenAI(&OpenAIConfig{APIKey: "test-key", BaseURL: server.URL + "/v1/"})
	s.Require().NoError(err)

	text, err := completer.Complete(s.ctx, "be terse", "what now?")
	s.Require().NoError(err)
	s.Equal("Mortgage nothing. Buy railroads.", text)
}

func (s *CommentaryTestSuite) TestNewOpenAIRequiresKey() {
	_, err := NewOpenAI(&OpenAIConfig{})
	s.Error(err)
}
