package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Dataset is the geographic tree of provinces → terminals → cooperatives → routes.
type Dataset struct {
	Provinces       []Province `json:"provincias"`
	PrincipalCities []string   `json:"ciudades_principales,omitempty"`
}

type Province struct {
	ID        string     `json:"id"`
	Name      string     `json:"nombre"`
	Terminals []Terminal `json:"terminales"`
}

type Terminal struct {
	ID           string        `json:"id"`
	Name         string        `json:"nombre"`
	Cooperatives []Cooperative `json:"cooperativas"`
}

type Phones struct {
	TicketOffice string `json:"boleteria,omitempty"`
	Parcels      string `json:"encomiendas,omitempty"`
}

type Cooperative struct {
	ID           string             `json:"id"`
	Name         string             `json:"nombre"`
	Phones       Phones             `json:"telefonos"`
	Routes       []Route            `json:"rutas"`
	RatingGlobal map[string]float64 `json:"rating_global,omitempty"`
}

type Route struct {
	Destination string   `json:"destino"`
	Schedules   []string `json:"horarios"`
	Cost        Cost     `json:"costo"`
}

// Cost is the fare of a route. The source data carries it either as a
// number, a string, or not at all.
type Cost struct {
	Text  string
	Value *float64
}

func (c Cost) IsZero() bool { return c.Text == "" }

func (c *Cost) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = Cost{}
		return nil
	}
	var text string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	} else {
		text = string(b)
	}
	text = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "$"))
	*c = Cost{Text: text}
	if v, err := strconv.ParseFloat(text, 64); err == nil {
		c.Value = &v
	}
	return nil
}

func (c Cost) MarshalJSON() ([]byte, error) {
	if c.Value != nil {
		return json.Marshal(*c.Value)
	}
	if c.Text == "" {
		return []byte("null"), nil
	}
	return json.Marshal(c.Text)
}

// CooperativeInfo is the extra metadata published per cooperative id.
type CooperativeInfo struct {
	Name          string             `json:"nombre"`
	RatingGlobal  map[string]float64 `json:"rating_global,omitempty"`
	ManagerPhone  string             `json:"telefono_gerencia,omitempty"`
	SocialNetwork map[string]string  `json:"redes,omitempty"`
	Services      []string           `json:"servicios,omitempty"`
}

// AverageRating is the mean of the rating values, 0 when there are none.
func AverageRating(ratings map[string]float64) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, v := range ratings {
		sum += v
	}
	return sum / float64(len(ratings))
}

// StarRating splits a rating into full, half and empty stars out of five.
func StarRating(rating float64) (full, half, empty int) {
	if rating < 0 {
		rating = 0
	}
	full = int(rating)
	if full > 5 {
		full = 5
	}
	if rating-float64(full) >= 0.5 && full < 5 {
		half = 1
	}
	empty = 5 - full - half
	return full, half, empty
}

// TerminalCount counts terminals across all provinces.
func (d *Dataset) TerminalCount() int {
	n := 0
	for _, p := range d.Provinces {
		n += len(p.Terminals)
	}
	return n
}

// FindTerminal looks a terminal up by id.
func (d *Dataset) FindTerminal(id string) (*Province, *Terminal, bool) {
	for pi := range d.Provinces {
		p := &d.Provinces[pi]
		for ti := range p.Terminals {
			if p.Terminals[ti].ID == id {
				return p, &p.Terminals[ti], true
			}
		}
	}
	return nil, nil, false
}

func (d *Dataset) FindProvince(id string) (*Province, bool) {
	for pi := range d.Provinces {
		if d.Provinces[pi].ID == id {
			return &d.Provinces[pi], true
		}
	}
	return nil, false
}
