package models

import "time"

// FavoriteRoute is one saved departure. The first five fields form its identity;
// Price is the raw cost text ("5", not "$5").
type FavoriteRoute struct {
	Cooperative string `json:"coop" bson:"coop"`
	Origin      string `json:"origen" bson:"origen"`
	Destination string `json:"destino" bson:"destino"`
	Time        string `json:"hora" bson:"hora"`
	Price       string `json:"precio" bson:"precio"`
	IsFavorite  bool   `json:"favorito" bson:"favorito"`
}

// SameRoute reports whether both favorites describe the same departure.
func (f FavoriteRoute) SameRoute(o FavoriteRoute) bool {
	return f.Cooperative == o.Cooperative &&
		f.Origin == o.Origin &&
		f.Destination == o.Destination &&
		f.Time == o.Time &&
		f.Price == o.Price
}

// FavoritesDocument is the MongoDB document holding one owner's favorites
type FavoritesDocument struct {
	Owner     string          `bson:"_id" json:"owner"`
	Routes    []FavoriteRoute `bson:"routes" json:"routes"`
	UpdatedAt time.Time       `bson:"updated_at" json:"updated_at"`
}
