package model

import (
	"time"

	"github.com/lib/pq"
)

// Base は管理画面で扱う全テーブル共通のID・タイムスタンプ列。
type Base struct {
	ID        uint      `gorm:"column:id;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// Record はBaseを埋め込んだエンティティが実装する。
func (b *Base) Record() *Base { return b }

// Record は汎用CRUDが扱うエンティティのインターフェース。
type Record interface {
	Record() *Base
}

// CompanyInfo は顧客・通関業者・海外代理店・運送業者に共通する会社情報。
type CompanyInfo struct {
	CompanyName    string `gorm:"column:company_name" json:"companyName" validate:"required,max=200"`
	CommercialName string `gorm:"column:commercial_name" json:"commercialName" validate:"required,max=200"`
	ContactPerson  string `gorm:"column:contact_person" json:"contactPerson" validate:"required,max=200"`
	Phone          string `gorm:"column:phone" json:"phone" validate:"required,max=50"`
	Address        string `gorm:"column:address" json:"address" validate:"required"`
	City           string `gorm:"column:city" json:"city" validate:"required"`
	State          string `gorm:"column:state" json:"state" validate:"required"`
	Country        string `gorm:"column:country" json:"country" validate:"required"`
	PostalCode     string `gorm:"column:postal_code" json:"postalCode" validate:"required,max=20"`
	TaxID          string `gorm:"column:tax_id" json:"taxId"`
	Website        string `gorm:"column:website" json:"website" validate:"omitempty,url"`
	Notes          string `gorm:"column:notes" json:"notes"`
}

// Airline は航空会社マスタ。
type Airline struct {
	Base
	Name     string `gorm:"column:name" json:"name" validate:"required,max=200"`
	IATACode string `gorm:"column:iata_code" json:"iataCode" validate:"omitempty,len=2,alphanum,uppercase"`
	Country  string `gorm:"column:country" json:"country" validate:"required"`
	Active   bool   `gorm:"column:active" json:"active"`
}

func (Airline) TableName() string { return "airlines" }

// Airport は空港マスタ。
type Airport struct {
	Base
	Name     string `gorm:"column:name" json:"name" validate:"required,max=200"`
	IATACode string `gorm:"column:iata_code" json:"iataCode" validate:"required,len=3,alpha,uppercase"`
	City     string `gorm:"column:city" json:"city" validate:"required"`
	Country  string `gorm:"column:country" json:"country" validate:"required"`
	Timezone string `gorm:"column:timezone" json:"timezone" validate:"required"`
	Active   bool   `gorm:"column:active" json:"active"`
}

func (Airport) TableName() string { return "airports" }

// OceanCarrier は船会社マスタ。
type OceanCarrier struct {
	Base
	Name    string `gorm:"column:name" json:"name" validate:"required,max=200"`
	Code    string `gorm:"column:code" json:"code" validate:"omitempty,max=10,alphanum"`
	Country string `gorm:"column:country" json:"country" validate:"required"`
	Active  bool   `gorm:"column:active" json:"active"`
}

func (OceanCarrier) TableName() string { return "ocean_carriers" }

// Port は港マスタ。
type Port struct {
	Base
	Name     string `gorm:"column:name" json:"name" validate:"required,max=200"`
	Code     string `gorm:"column:code" json:"code" validate:"omitempty,max=10,alphanum"`
	City     string `gorm:"column:city" json:"city" validate:"required"`
	Country  string `gorm:"column:country" json:"country" validate:"required"`
	Timezone string `gorm:"column:timezone" json:"timezone" validate:"required"`
	Active   bool   `gorm:"column:active" json:"active"`
}

func (Port) TableName() string { return "ports" }

// PortTerminal は港のターミナル。一覧表示では所属港を結合する。
type PortTerminal struct {
	Base
	Name            string         `gorm:"column:name" json:"name" validate:"required,max=200"`
	PortID          uint           `gorm:"column:port_id" json:"portId" validate:"required"`
	Port            *Port          `gorm:"foreignKey:PortID" json:"port,omitempty" validate:"-"`
	TerminalCode    string         `gorm:"column:terminal_code" json:"terminalCode" validate:"required,max=20"`
	OperatingHours  string         `gorm:"column:operating_hours" json:"operatingHours" validate:"required"`
	CargoTypes      pq.StringArray `gorm:"column:cargo_types;type:text[]" json:"cargoTypes" validate:"required,min=1,dive,required"`
	MaxVesselSize   string         `gorm:"column:max_vessel_size" json:"maxVesselSize"`
	BerthLength     string         `gorm:"column:berth_length" json:"berthLength" validate:"omitempty,numeric"`
	MaxDraft        string         `gorm:"column:max_draft" json:"maxDraft" validate:"omitempty,numeric"`
	StorageCapacity string         `gorm:"column:storage_capacity" json:"storageCapacity"`
	ContactPerson   string         `gorm:"column:contact_person" json:"contactPerson" validate:"required"`
	Phone           string         `gorm:"column:phone" json:"phone" validate:"required"`
	Email           string         `gorm:"column:email" json:"email" validate:"required,email"`
	Address         string         `gorm:"column:address" json:"address" validate:"required"`
	Notes           string         `gorm:"column:notes" json:"notes"`
	Active          bool           `gorm:"column:active" json:"active"`
}

func (PortTerminal) TableName() string { return "port_terminals" }

// Country は国マスタ。CodeはISO 3166-1 alpha-2。
type Country struct {
	Base
	Name   string `gorm:"column:name" json:"name" validate:"required,max=200"`
	Code   string `gorm:"column:code" json:"code" validate:"required,len=2,alpha,uppercase"`
	Active bool   `gorm:"column:active" json:"active"`
}

func (Country) TableName() string { return "countries" }

// Customer は荷主・荷受人となる顧客。
type Customer struct {
	Base
	CompanyInfo
	EORI   string `gorm:"column:eori" json:"eori"`
	Active bool   `gorm:"column:active" json:"active"`
}

func (Customer) TableName() string { return "customers" }

// CustomsBroker は通関業者。
type CustomsBroker struct {
	Base
	CompanyInfo
	LicenseNumber   string         `gorm:"column:license_number" json:"licenseNumber" validate:"required,max=50"`
	Jurisdiction    string         `gorm:"column:jurisdiction" json:"jurisdiction" validate:"required"`
	Specializations pq.StringArray `gorm:"column:specializations;type:text[]" json:"specializations" validate:"required,min=1,dive,required"`
	Active          bool           `gorm:"column:active" json:"active"`
}

func (CustomsBroker) TableName() string { return "customs_brokers" }

// InternationalAgent は海外代理店。
type InternationalAgent struct {
	Base
	CompanyInfo
	EORI   string `gorm:"column:eori" json:"eori"`
	Active bool   `gorm:"column:active" json:"active"`
}

func (InternationalAgent) TableName() string { return "international_agents" }

// 運送業者の稼働状況。
const (
	AvailabilityAvailable = "available"
	AvailabilityBusy      = "busy"
	AvailabilityOffline   = "offline"
)

// Trucker は国内配送を担う運送業者。
type Trucker struct {
	Base
	CompanyInfo
	AvailabilityStatus string `gorm:"column:availability_status" json:"availabilityStatus" validate:"required,oneof=available busy offline"`
	Active             bool   `gorm:"column:active" json:"active"`
}

func (Trucker) TableName() string { return "truckers" }

// Warehouse は倉庫マスタ。容量・使用率は数値文字列で保持する。
type Warehouse struct {
	Base
	Name               string `gorm:"column:name" json:"name" validate:"required,max=200"`
	Code               string `gorm:"column:code" json:"code" validate:"required,max=20"`
	StorageCapacity    string `gorm:"column:storage_capacity" json:"storageCapacity" validate:"required,numeric"`
	CurrentUtilization string `gorm:"column:current_utilization" json:"currentUtilization" validate:"omitempty,numeric"`
	Address            string `gorm:"column:address" json:"address" validate:"required"`
	City               string `gorm:"column:city" json:"city" validate:"required"`
	State              string `gorm:"column:state" json:"state" validate:"required"`
	Country            string `gorm:"column:country" json:"country" validate:"required"`
	PostalCode         string `gorm:"column:postal_code" json:"postalCode" validate:"required"`
	ContactPerson      string `gorm:"column:contact_person" json:"contactPerson" validate:"required"`
	Phone              string `gorm:"column:phone" json:"phone" validate:"required"`
	Email              string `gorm:"column:email" json:"email" validate:"required,email"`
	OperatingHours     string `gorm:"column:operating_hours" json:"operatingHours" validate:"required"`
	SecurityLevel      string `gorm:"column:security_level" json:"securityLevel"`
	TemperatureControl bool   `gorm:"column:temperature_control" json:"temperatureControl"`
	HazmatCertified    bool   `gorm:"column:hazmat_certified" json:"hazmatCertified"`
	Notes              string `gorm:"column:notes" json:"notes"`
	Active             bool   `gorm:"column:active" json:"active"`
}

func (Warehouse) TableName() string { return "warehouses" }
