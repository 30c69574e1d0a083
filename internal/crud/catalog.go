package crud

import (
	"gorm.io/gorm"

	"github.com/brlglobal/brladmin/internal/model"
	"github.com/brlglobal/brladmin/internal/repository"
	"github.com/brlglobal/brladmin/internal/validation"
)

var _ Endpoint = (*Resource[model.Airline, *model.Airline])(nil)

// Schemas はエンティティ種別ごとのSchema一覧。
var (
	AirlineSchema = Schema[model.Airline]{
		Name:  "airlines",
		Label: "Airline",
		New:   func() *model.Airline { return &model.Airline{Active: true} },
	}
	AirportSchema = Schema[model.Airport]{
		Name:  "airports",
		Label: "Airport",
		New:   func() *model.Airport { return &model.Airport{Active: true} },
	}
	OceanCarrierSchema = Schema[model.OceanCarrier]{
		Name:  "ocean-carriers",
		Label: "Ocean carrier",
		New:   func() *model.OceanCarrier { return &model.OceanCarrier{Active: true} },
	}
	PortSchema = Schema[model.Port]{
		Name:  "ports",
		Label: "Port",
		New:   func() *model.Port { return &model.Port{Active: true} },
	}
	PortTerminalSchema = Schema[model.PortTerminal]{
		Name:     "port-terminals",
		Label:    "Port terminal",
		Preloads: []string{"Port"},
		New:      func() *model.PortTerminal { return &model.PortTerminal{Active: true} },
	}
	CountrySchema = Schema[model.Country]{
		Name:  "countries",
		Label: "Country",
		New:   func() *model.Country { return &model.Country{Active: true} },
	}
	CustomerSchema = Schema[model.Customer]{
		Name:  "customers",
		Label: "Customer",
		New:   func() *model.Customer { return &model.Customer{Active: true} },
	}
	CustomsBrokerSchema = Schema[model.CustomsBroker]{
		Name:  "customs-brokers",
		Label: "Customs broker",
		New:   func() *model.CustomsBroker { return &model.CustomsBroker{Active: true} },
	}
	InternationalAgentSchema = Schema[model.InternationalAgent]{
		Name:  "international-agents",
		Label: "International agent",
		New:   func() *model.InternationalAgent { return &model.InternationalAgent{Active: true} },
	}
	TruckerSchema = Schema[model.Trucker]{
		Name:  "truckers",
		Label: "Trucker",
		New: func() *model.Trucker {
			return &model.Trucker{AvailabilityStatus: model.AvailabilityAvailable, Active: true}
		},
	}
	WarehouseSchema = Schema[model.Warehouse]{
		Name:  "warehouses",
		Label: "Warehouse",
		New:   func() *model.Warehouse { return &model.Warehouse{Active: true} },
	}
	ShipmentSchema = Schema[model.Shipment]{
		Name:     "shipments",
		Label:    "Shipment",
		Preloads: []string{"Client"},
		New:      func() *model.Shipment { return &model.Shipment{Status: model.ShipmentStatusPending} },
	}
	DocumentSchema = Schema[model.Document]{
		Name:     "documents",
		Label:    "Document",
		Preloads: []string{"Shipment"},
	}
	InboundAirfreightSchema = Schema[model.InboundAirfreightShipment]{
		Name:  "airfreight/inbound",
		Label: "Inbound airfreight shipment",
		Preloads: []string{
			"Shipper",
			"Consignee",
			"InternationalAgent",
			"Airline",
			"OriginAirport",
			"DestinationAirport",
			"CustomsBroker",
			"Trucker",
		},
		New: func() *model.InboundAirfreightShipment {
			return &model.InboundAirfreightShipment{
				Status:                 model.ShipmentStatusPending,
				CustomsClearanceStatus: model.ClearancePending,
				CCT:                    "Pending",
			}
		},
	}
)

// Catalog はgormリポジトリを使う全エンティティのEndpointをURLセグメント順に返す。
func Catalog(db *gorm.DB, v *validation.Validator, s *validation.Sanitizer) []Endpoint {
	return []Endpoint{
		gormResource(db, v, s, AirlineSchema),
		gormResource(db, v, s, AirportSchema),
		gormResource(db, v, s, OceanCarrierSchema),
		gormResource(db, v, s, PortSchema),
		gormResource(db, v, s, PortTerminalSchema),
		gormResource(db, v, s, CountrySchema),
		gormResource(db, v, s, CustomerSchema),
		gormResource(db, v, s, CustomsBrokerSchema),
		gormResource(db, v, s, InternationalAgentSchema),
		gormResource(db, v, s, TruckerSchema),
		gormResource(db, v, s, WarehouseSchema),
		gormResource(db, v, s, ShipmentSchema),
		gormResource(db, v, s, DocumentSchema),
		gormResource(db, v, s, InboundAirfreightSchema),
	}
}

func gormResource[T any, PT Record[T]](
	db *gorm.DB,
	v *validation.Validator,
	s *validation.Sanitizer,
	schema Schema[T],
) Endpoint {
	return NewResource[T, PT](schema, repository.NewGormEntityRepo[T](db, schema.Preloads...), v, s)
}
