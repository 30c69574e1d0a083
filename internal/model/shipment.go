package model

import "time"

// 出荷ステータス。状態遷移は強制せず、許容値のみ制限する。
const (
	ShipmentStatusPending   = "pending"
	ShipmentStatusInTransit = "in_transit"
	ShipmentStatusArrived   = "arrived"
	ShipmentStatusDelivered = "delivered"
	ShipmentStatusCancelled = "cancelled"
)

// 通関ステータス。
const (
	ClearancePending    = "pending"
	ClearanceInProgress = "in_progress"
	ClearanceCleared    = "cleared"
	ClearanceHeld       = "held"
)

// Shipment は顧客単位の汎用出荷記録。書類の紐付け先になる。
type Shipment struct {
	Base
	ClientID          uint       `gorm:"column:client_id" json:"clientId" validate:"required"`
	Client            *Customer  `gorm:"foreignKey:ClientID" json:"client,omitempty" validate:"-"`
	TrackingNumber    string     `gorm:"column:tracking_number" json:"trackingNumber" validate:"required,max=100"`
	Status            string     `gorm:"column:status" json:"status" validate:"required,oneof=pending in_transit arrived delivered cancelled"`
	Origin            string     `gorm:"column:origin" json:"origin" validate:"required"`
	Destination       string     `gorm:"column:destination" json:"destination" validate:"required"`
	ServiceType       string     `gorm:"column:service_type" json:"serviceType" validate:"required,oneof=ocean air ground"`
	EstimatedDelivery *time.Time `gorm:"column:estimated_delivery" json:"estimatedDelivery"`
	ActualDelivery    *time.Time `gorm:"column:actual_delivery" json:"actualDelivery"`
	Details           string     `gorm:"column:details" json:"details"`
}

func (Shipment) TableName() string { return "shipments" }

// Document は出荷書類。ファイル本体はBase64文字列で保持する。
type Document struct {
	Base
	ShipmentID  *uint     `gorm:"column:shipment_id" json:"shipmentId" validate:"omitempty,gt=0"`
	Shipment    *Shipment `gorm:"foreignKey:ShipmentID" json:"shipment,omitempty" validate:"-"`
	Type        string    `gorm:"column:type" json:"type" validate:"required,oneof=invoice bill_of_lading packing_list certificate_of_origin customs airway_bill other"`
	Filename    string    `gorm:"column:filename" json:"filename" validate:"required,max=255"`
	FileContent string    `gorm:"column:file_content" json:"fileContent" validate:"required,base64" sanitize:"-" export:"-"`
	FileSize    int64     `gorm:"column:file_size" json:"fileSize" validate:"gte=0"`
	MimeType    string    `gorm:"column:mime_type" json:"mimeType" validate:"required,max=100"`
}

func (Document) TableName() string { return "documents" }

// InboundAirfreightShipment は輸入航空貨物の記録。
// 参照先の存在確認は外部キー制約に委ねる。
type InboundAirfreightShipment struct {
	Base
	BRLReference string `gorm:"column:brl_reference" json:"brlReference" validate:"required,max=50"`

	ShipperID            uint `gorm:"column:shipper_id" json:"shipperId" validate:"required"`
	ConsigneeID          uint `gorm:"column:consignee_id" json:"consigneeId" validate:"required"`
	InternationalAgentID uint `gorm:"column:international_agent_id" json:"internationalAgentId" validate:"required"`
	AirlineID            uint `gorm:"column:airline_id" json:"airlineId" validate:"required"`
	OriginAirportID      uint `gorm:"column:origin_airport_id" json:"originAirportId" validate:"required"`
	DestinationAirportID uint `gorm:"column:destination_airport_id" json:"destinationAirportId" validate:"required"`
	CustomsBrokerID      uint `gorm:"column:customs_broker_id" json:"customsBrokerId" validate:"required"`
	TruckerID            uint `gorm:"column:trucker_id" json:"truckerId" validate:"required"`

	Shipper            *Customer           `gorm:"foreignKey:ShipperID" json:"shipper,omitempty" validate:"-"`
	Consignee          *Customer           `gorm:"foreignKey:ConsigneeID" json:"consignee,omitempty" validate:"-"`
	InternationalAgent *InternationalAgent `gorm:"foreignKey:InternationalAgentID" json:"internationalAgent,omitempty" validate:"-"`
	Airline            *Airline            `gorm:"foreignKey:AirlineID" json:"airline,omitempty" validate:"-"`
	OriginAirport      *Airport            `gorm:"foreignKey:OriginAirportID" json:"originAirport,omitempty" validate:"-"`
	DestinationAirport *Airport            `gorm:"foreignKey:DestinationAirportID" json:"destinationAirport,omitempty" validate:"-"`
	CustomsBroker      *CustomsBroker      `gorm:"foreignKey:CustomsBrokerID" json:"customsBroker,omitempty" validate:"-"`
	Trucker            *Trucker            `gorm:"foreignKey:TruckerID" json:"trucker,omitempty" validate:"-"`

	HAWB             string    `gorm:"column:hawb" json:"hawb" validate:"required,max=50"`
	MAWB             string    `gorm:"column:mawb" json:"mawb" validate:"required,max=50"`
	FlightNumber     string    `gorm:"column:flight_number" json:"flightNumber" validate:"required,max=20"`
	DepartureDate    Date      `gorm:"column:departure_date" json:"departureDate" validate:"required"`
	ArrivalDate      Date      `gorm:"column:arrival_date" json:"arrivalDate" validate:"required,gtefield=DepartureDate"`
	Pieces           int       `gorm:"column:pieces" json:"pieces" validate:"gte=1"`
	Weight           string    `gorm:"column:weight" json:"weight" validate:"required,numeric"`
	ChargeableWeight string    `gorm:"column:chargeable_weight" json:"chargeableWeight" validate:"omitempty,numeric"`
	Volume           string    `gorm:"column:volume" json:"volume" validate:"omitempty,numeric"`
	GoodsDescription string    `gorm:"column:goods_description" json:"goodsDescription" validate:"required"`
	PerishableCargo  bool      `gorm:"column:perishable_cargo" json:"perishableCargo"`
	DangerousCargo   bool      `gorm:"column:dangerous_cargo" json:"dangerousCargo"`
	Status           string    `gorm:"column:status" json:"status" validate:"required,oneof=pending in_transit arrived delivered cancelled"`
	DUIMP            string    `gorm:"column:duimp" json:"duimp"`
	CCT              string    `gorm:"column:cct" json:"cct" validate:"required"`
	Notes            string    `gorm:"column:notes" json:"notes"`

	CustomsClearanceStatus string `gorm:"column:customs_clearance_status" json:"customsClearanceStatus" validate:"required,oneof=pending in_progress cleared held"`
}

func (InboundAirfreightShipment) TableName() string { return "inbound_airfreight_shipments" }
