// Package board holds the immutable game catalog: the 40-cell tile ring and
// the two event-card decks. The catalog ships embedded in the binary and is
// loaded once at startup; everything it returns must be treated as read-only.
package board

import (
	"embed"
	"encoding/json"
	"fmt"
)

// Size is the fixed number of cells on the board.
const Size = 40

// TileType identifies the behavior of a board cell.
type TileType string

const (
	TileStart    TileType = "START"
	TileProperty TileType = "PROPERTY"
	TileRailway  TileType = "RAILWAY"
	TileUtility  TileType = "UTILITY"
	TileChance   TileType = "CHANCE"
	TileChest    TileType = "CHEST"
	TileTax      TileType = "TAX"
	TileParking  TileType = "PARKING"
	TileJail     TileType = "JAIL"
	TileGoToJail TileType = "GO_TO_JAIL"
)

// Tile is one immutable board cell. Economic fields are only set for ownable
// types; Tax is only set for TAX cells.
type Tile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      TileType `json:"type"`
	Position  int      `json:"position"`
	Group     string   `json:"group,omitempty"`
	Price     int      `json:"price,omitempty"`
	Rents     []int    `json:"rents,omitempty"`
	HouseCost int      `json:"houseCost,omitempty"`
	Mortgage  int      `json:"mortgage,omitempty"`
	Tax       int      `json:"tax,omitempty"`
}

// Ownable reports whether players can buy this tile.
func (t *Tile) Ownable() bool {
	switch t.Type {
	case TileProperty, TileRailway, TileUtility:
		return true
	}
	return false
}

// BaseRent is the undeveloped rent for properties and the per-terminal fee
// for railways. Utilities have no base rent; their rent is dice-derived.
func (t *Tile) BaseRent() int {
	if len(t.Rents) == 0 {
		return 0
	}
	return t.Rents[0]
}

// RentAt returns the rent for a development level, clamped to the schedule.
func (t *Tile) RentAt(level int) int {
	if len(t.Rents) == 0 {
		return 0
	}
	if level < 0 {
		level = 0
	}
	if level >= len(t.Rents) {
		level = len(t.Rents) - 1
	}
	return t.Rents[level]
}

// EffectKind tags a card effect variant.
type EffectKind string

const (
	EffectCollect        EffectKind = "COLLECT"
	EffectPay            EffectKind = "PAY"
	EffectGoto           EffectKind = "GOTO"
	EffectMove           EffectKind = "MOVE"
	EffectAdvanceNearest EffectKind = "ADVANCE_NEAREST"
	EffectRepairs        EffectKind = "REPAIRS"
	EffectJailFree       EffectKind = "JAIL_FREE"
	EffectGoToJail       EffectKind = "GO_TO_JAIL"
	EffectLuck           EffectKind = "LUCK"
)

// Card is one event card. Effect selects the variant; the parameter fields
// below it are meaningful only for the variants that name them.
type Card struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Effect      EffectKind `json:"effect"`

	Amount   int      `json:"amount,omitempty"`   // COLLECT, PAY
	Target   string   `json:"target,omitempty"`   // GOTO: destination tile id
	Offset   int      `json:"offset,omitempty"`   // MOVE: signed step count
	TileType TileType `json:"tileType,omitempty"` // ADVANCE_NEAREST
	HouseFee int      `json:"houseFee,omitempty"` // REPAIRS: per development level
	HotelFee int      `json:"hotelFee,omitempty"` // REPAIRS: per landmark
	Reward   int      `json:"reward,omitempty"`   // LUCK: doubles payout
	Penalty  int      `json:"penalty,omitempty"`  // LUCK: non-doubles charge
}

//go:embed data/board.json data/chance.json data/treasury.json
var dataFS embed.FS

// Catalog is the loaded board: tile ring, group index and the two decks.
type Catalog struct {
	tiles   []Tile
	byID    map[string]*Tile
	groups  map[string][]*Tile
	chance  []Card
	chest   []Card
	jailPos int
}

// Load parses the embedded catalog data and validates its shape.
func Load() (*Catalog, error) {
	c := &Catalog{
		byID:    make(map[string]*Tile),
		groups:  make(map[string][]*Tile),
		jailPos: -1,
	}

	if err := loadJSON("data/board.json", &c.tiles); err != nil {
		return nil, err
	}
	if err := loadJSON("data/chance.json", &c.chance); err != nil {
		return nil, err
	}
	if err := loadJSON("data/treasury.json", &c.chest); err != nil {
		return nil, err
	}

	if len(c.tiles) != Size {
		return nil, fmt.Errorf("board must have %d tiles, got %d", Size, len(c.tiles))
	}
	for i := range c.tiles {
		t := &c.tiles[i]
		if t.Position != i {
			return nil, fmt.Errorf("tile %q at index %d declares position %d", t.ID, i, t.Position)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate tile id %q", t.ID)
		}
		c.byID[t.ID] = t
		if t.Group != "" {
			c.groups[t.Group] = append(c.groups[t.Group], t)
		}
		if t.Type == TileJail {
			c.jailPos = i
		}
	}
	if c.jailPos < 0 {
		return nil, fmt.Errorf("board has no jail tile")
	}
	if len(c.chance) == 0 || len(c.chest) == 0 {
		return nil, fmt.Errorf("card decks must not be empty")
	}
	for _, deck := range [][]Card{c.chance, c.chest} {
		for _, card := range deck {
			if card.Effect == EffectGoto {
				if _, ok := c.byID[card.Target]; !ok {
					return nil, fmt.Errorf("card %q targets unknown tile %q", card.ID, card.Target)
				}
			}
		}
	}

	return c, nil
}

func loadJSON(name string, v interface{}) error {
	raw, err := dataFS.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// Size returns the number of tiles on the board ring.
func (c *Catalog) Size() int {
	return len(c.tiles)
}

// TileAt returns the tile at a board position, taken modulo the ring size.
func (c *Catalog) TileAt(pos int) *Tile {
	n := len(c.tiles)
	pos %= n
	if pos < 0 {
		pos += n
	}
	return &c.tiles[pos]
}

// TileByID returns the tile with the given id, or nil if unknown.
func (c *Catalog) TileByID(id string) *Tile {
	return c.byID[id]
}

// Group returns every tile sharing a group key, in board order.
func (c *Catalog) Group(key string) []*Tile {
	return c.groups[key]
}

// JailPosition returns the board index of the jail tile.
func (c *Catalog) JailPosition() int {
	return c.jailPos
}

// NearestAhead returns the position of the first tile of the given type
// strictly ahead of from, wrapping around the ring at most once. Returns -1
// if the board has no tile of that type.
func (c *Catalog) NearestAhead(from int, tt TileType) int {
	n := len(c.tiles)
	for step := 1; step <= n; step++ {
		pos := (from + step) % n
		if c.tiles[pos].Type == tt {
			return pos
		}
	}
	return -1
}

// ChanceCard returns the chance card for a monotonic draw cursor. Cursors
// wrap so a deck cycles exhaustively before any card repeats.
func (c *Catalog) ChanceCard(cursor int) Card {
	return c.chance[mod(cursor, len(c.chance))]
}

// ChestCard returns the treasury card for a monotonic draw cursor.
func (c *Catalog) ChestCard(cursor int) Card {
	return c.chest[mod(cursor, len(c.chest))]
}

// ChanceDeckSize returns the number of cards in the chance deck.
func (c *Catalog) ChanceDeckSize() int {
	return len(c.chance)
}

// ChestDeckSize returns the number of cards in the treasury deck.
func (c *Catalog) ChestDeckSize() int {
	return len(c.chest)
}

func mod(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}
