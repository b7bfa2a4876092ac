package engine

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/megapoly/internal/models"
)

// Rules are the tunable economic and turn constants of a game
type Rules struct {
	StartingMoney      int           `yaml:"starting_money"`
	PassGoBonus        int           `yaml:"pass_go_bonus"`
	RentPercent        int           `yaml:"rent_percent"`
	FlatRent           int           `yaml:"flat_rent"`
	AuctionOpenPercent int           `yaml:"auction_open_percent"`
	AuctionMinOpen     int           `yaml:"auction_min_open"`
	AuctionTimeout     time.Duration `yaml:"auction_timeout"`
	DoublesToJail      int           `yaml:"doubles_to_jail"`
	JailMaxTurns       int           `yaml:"jail_max_turns"`
	BailAmount         int           `yaml:"bail_amount"`
	MortgagePercent    int           `yaml:"mortgage_percent"`
	UnmortgagePercent  int           `yaml:"unmortgage_percent"`
	UpgradePercent     int           `yaml:"upgrade_percent"`
	MinPlayers         int           `yaml:"min_players"`
	MaxPlayers         int           `yaml:"max_players"`
	LogCapacity        int           `yaml:"log_capacity"`
}

// DefaultRules returns the standard rule set
func DefaultRules() Rules {
	return Rules{
		StartingMoney:      1500,
		PassGoBonus:        200,
		RentPercent:        10,
		FlatRent:           50,
		AuctionOpenPercent: 50,
		AuctionMinOpen:     10,
		AuctionTimeout:     0,
		DoublesToJail:      3,
		JailMaxTurns:       3,
		BailAmount:         50,
		MortgagePercent:    50,
		UnmortgagePercent:  120,
		UpgradePercent:     50,
		MinPlayers:         2,
		MaxPlayers:         8,
		LogCapacity:        50,
	}
}

// LoadRules overlays the YAML file at path onto the defaults. An empty path
// returns the defaults.
func LoadRules(path string) (Rules, error) {
	r := DefaultRules()
	if path == "" {
		return r, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(raw, &r); err != nil {
		return r, fmt.Errorf("rules.yaml: %w", err)
	}
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("rules.yaml: %w", err)
	}
	return r, nil
}

// Validate rejects rule sets the engine cannot run with
func (r Rules) Validate() error {
	switch {
	case r.StartingMoney <= 0:
		return fmt.Errorf("starting_money must be positive")
	case r.PassGoBonus < 0 || r.RentPercent < 0 || r.FlatRent < 0 || r.BailAmount < 0:
		return fmt.Errorf("amounts cannot be negative")
	case r.AuctionMinOpen <= 0:
		return fmt.Errorf("auction_min_open must be positive")
	case r.AuctionTimeout < 0:
		return fmt.Errorf("auction_timeout cannot be negative")
	case r.DoublesToJail < 1 || r.JailMaxTurns < 1:
		return fmt.Errorf("doubles_to_jail and jail_max_turns must be at least 1")
	case r.MinPlayers < 1 || r.MinPlayers > r.MaxPlayers:
		return fmt.Errorf("min_players must be between 1 and max_players")
	case r.MaxPlayers > len(models.Tokens):
		return fmt.Errorf("max_players cannot exceed %d", len(models.Tokens))
	case r.LogCapacity < 1:
		return fmt.Errorf("log_capacity must be at least 1")
	}
	return nil
}
