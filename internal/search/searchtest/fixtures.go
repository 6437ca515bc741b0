// Package searchtest provides a small Ecuadorian dataset for tests.
package searchtest

import (
	"github.com/busvas-search/app/models"
	"github.com/busvas-search/internal/normalizer"
	"github.com/busvas-search/internal/search"
)

func cost(v float64, text string) models.Cost {
	return models.Cost{Text: text, Value: &v}
}

// Dataset returns four provinces with a handful of terminals and cooperatives.
func Dataset() *models.Dataset {
	return &models.Dataset{
		PrincipalCities: []string{"Quito", "Guayaquil", "Cuenca"},
		Provinces: []models.Province{
			{
				ID: "chimborazo", Name: "Chimborazo",
				Terminals: []models.Terminal{
					{
						ID: "riobamba", Name: "Riobamba",
						Cooperatives: []models.Cooperative{
							{
								ID: "coopx", Name: "CoopX",
								Phones: models.Phones{TicketOffice: "032-961-000"},
								Routes: []models.Route{
									{Destination: "Quito", Schedules: []string{"08:00", "10:30"}, Cost: cost(5, "5")},
									{Destination: "Guayaquil", Schedules: []string{"09:00"}, Cost: cost(6, "6")},
								},
								RatingGlobal: map[string]float64{"puntualidad": 4, "comodidad": 5},
							},
							{
								ID: "andina", Name: "Trans Andina",
								Routes: []models.Route{
									{Destination: "Ambato", Schedules: []string{"06:00"}, Cost: cost(2.5, "2.50")},
									{Destination: "Baños de Agua Santa", Schedules: []string{"11:00"}, Cost: cost(3, "3")},
								},
								RatingGlobal: map[string]float64{"puntualidad": 3},
							},
							{
								ID: "patria", Name: "Cooperativa Patria",
								Routes: []models.Route{
									{Destination: "Cuenca", Schedules: []string{"13:00"}, Cost: cost(9, "9")},
								},
							},
						},
					},
					{
						ID: "alausi", Name: "Alausí",
						Cooperatives: []models.Cooperative{
							{
								ID: "alausi-express", Name: "Alausí Express",
								Routes: []models.Route{
									{Destination: "Riobamba", Schedules: []string{"07:00"}, Cost: cost(2, "2")},
								},
							},
						},
					},
				},
			},
			{
				ID: "pichincha", Name: "Pichincha",
				Terminals: []models.Terminal{
					{
						ID: "quitumbe", Name: "Terminal Quitumbe",
						Cooperatives: []models.Cooperative{
							{
								ID: "esmeraldas", Name: "Trans Esmeraldas",
								Routes: []models.Route{
									{Destination: "Riobamba", Schedules: []string{"06:30"}, Cost: cost(5, "5")},
									{Destination: "Guayaquil", Schedules: []string{"22:00"}, Cost: cost(10, "10")},
									{Destination: "Baños", Schedules: []string{"08:15"}, Cost: cost(4.5, "4.50")},
								},
								RatingGlobal: map[string]float64{"puntualidad": 4.5},
							},
						},
					},
					{
						ID: "carcelen", Name: "Terminal Carcelén",
						Cooperatives: []models.Cooperative{
							{
								ID: "imbabura", Name: "Flota Imbabura",
								Routes: []models.Route{
									{Destination: "Ibarra", Schedules: []string{"09:00"}, Cost: cost(2.5, "2.50")},
									{Destination: "Tulcán", Schedules: []string{"10:00"}, Cost: cost(6, "6")},
								},
							},
						},
					},
				},
			},
			{
				ID: "tungurahua", Name: "Tungurahua",
				Terminals: []models.Terminal{
					{
						ID: "banos", Name: "Baños",
						Cooperatives: []models.Cooperative{
							{
								ID: "expreso-banos", Name: "Expreso Baños",
								Routes: []models.Route{
									{Destination: "Quito", Schedules: []string{"05:00"}, Cost: cost(4.5, "4.50")},
									{Destination: "Ambato", Schedules: []string{"07:30", "08:30"}, Cost: cost(1, "1")},
								},
							},
						},
					},
				},
			},
			{
				ID: "guayas", Name: "Guayas",
				Terminals: []models.Terminal{
					{
						ID: "guayaquil", Name: "Terminal Terrestre Guayaquil",
						Cooperatives: []models.Cooperative{
							{
								ID: "ecuador", Name: "Transportes Ecuador",
								Routes: []models.Route{
									{Destination: "Quito", Schedules: []string{"21:00", "23:00"}, Cost: cost(10, "10")},
									{Destination: "Cuenca", Schedules: []string{"06:00"}, Cost: cost(8, "8")},
								},
							},
						},
					},
				},
			},
		},
	}
}

// Index builds a route index over Dataset with the default synonym table.
func Index() *search.RouteIndex {
	return search.BuildRouteIndex(Dataset(), "test", normalizer.NewTextNormalizer(nil))
}

// SharedTerminalIDDataset has two provinces whose terminals share the id
// "centro" but serve different destinations.
func SharedTerminalIDDataset() *models.Dataset {
	return &models.Dataset{
		Provinces: []models.Province{
			{
				ID: "norte", Name: "Norte",
				Terminals: []models.Terminal{{
					ID: "centro", Name: "Centro Norte",
					Cooperatives: []models.Cooperative{{
						ID: "alpha", Name: "Alpha",
						Routes: []models.Route{{Destination: "Loja", Schedules: []string{"07:00"}, Cost: cost(12, "12")}},
					}},
				}},
			},
			{
				ID: "sur", Name: "Sur",
				Terminals: []models.Terminal{{
					ID: "centro", Name: "Centro Sur",
					Cooperatives: []models.Cooperative{{
						ID: "beta", Name: "Beta",
						Routes: []models.Route{{Destination: "Quito", Schedules: []string{"09:00", "14:00"}, Cost: cost(5, "5")}},
					}},
				}},
			},
		},
	}
}

// SharedTerminalIDIndex builds a route index over SharedTerminalIDDataset.
func SharedTerminalIDIndex() *search.RouteIndex {
	return search.BuildRouteIndex(SharedTerminalIDDataset(), "shared", normalizer.NewTextNormalizer(nil))
}
