package receipt

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Carrier is the shipping method a receipt arrived with
type Carrier string

const (
	CarrierAir    Carrier = "air"
	CarrierGround Carrier = "ground"
	CarrierOther  Carrier = "other"
)

// IsValid returns true if the carrier is a known one
func (c Carrier) IsValid() bool {
	switch c {
	case CarrierAir, CarrierGround, CarrierOther:
		return true
	}
	return false
}

// String returns the string representation of Carrier
func (c Carrier) String() string {
	return string(c)
}

// Detail is the full record shown on the receipt view and edit screens.
// Dimensions are centimetres and weight is kilograms.
type Detail struct {
	ReceiptID      string          `json:"receipt_id"`
	PurchaseOrder  string          `json:"purchase_order"`
	Carrier        Carrier         `json:"carrier" validate:"required,oneof=air ground other"`
	TrackingNumber string          `json:"tracking_number"`
	Quantity       int             `json:"quantity" validate:"gte=0"`
	PackageType    string          `json:"package_type"`
	Length         decimal.Decimal `json:"length"`
	Width          decimal.Decimal `json:"width"`
	Height         decimal.Decimal `json:"height"`
	Weight         decimal.Decimal `json:"weight"`
	Location       string          `json:"location"`
	IsHazmat       bool            `json:"is_hazmat"`
	HazmatNumber   string          `json:"hazmat_number"`
	AdditionalInfo string          `json:"additional_info"`
	EmployeeID     string          `json:"employee_id" validate:"required"`
}

// Volume returns length × width × height in cubic centimetres
func (d *Detail) Volume() decimal.Decimal {
	return d.Length.Mul(d.Width).Mul(d.Height)
}

// normalize trims free-text fields and drops the hazmat number of non-hazardous goods
func (d *Detail) normalize() {
	d.Carrier = Carrier(strings.ToLower(strings.TrimSpace(string(d.Carrier))))
	d.TrackingNumber = strings.TrimSpace(d.TrackingNumber)
	d.PackageType = strings.TrimSpace(d.PackageType)
	d.Location = strings.TrimSpace(d.Location)
	d.HazmatNumber = strings.TrimSpace(d.HazmatNumber)
	d.EmployeeID = strings.TrimSpace(d.EmployeeID)
	if !d.IsHazmat {
		d.HazmatNumber = ""
	}
}
