package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// KDESet is the closed set of key data element variants, one per event
// type. Each variant carries the mandatory attributes the applicable
// regulation requires for its event type. Validate returns a *KDEError
// listing every absent required field.
type KDESet interface {
	EventType() EventType
	Validate() error
}

// HarvestKDE carries the mandatory attributes of a harvest event.
type HarvestKDE struct {
	HarvestDate        string `json:"harvest_date"`
	HarvestLocation    string `json:"harvest_location"`
	FarmIdentification string `json:"farm_identification"`
	Commodity          string `json:"commodity"`
}

func (k *HarvestKDE) EventType() EventType { return EventHarvest }

func (k *HarvestKDE) Validate() error {
	return requireFields(EventHarvest, map[string]bool{
		"harvest_date":        k.HarvestDate != "",
		"harvest_location":    k.HarvestLocation != "",
		"farm_identification": k.FarmIdentification != "",
		"commodity":           k.Commodity != "",
	})
}

// CoolingKDE carries the mandatory attributes of a cooling event.
type CoolingKDE struct {
	CoolingDate     string `json:"cooling_date"`
	CoolingLocation string `json:"cooling_location"`
	Temperature     string `json:"temperature"`
	LotCode         string `json:"lot_code"`
}

func (k *CoolingKDE) EventType() EventType { return EventCooling }

func (k *CoolingKDE) Validate() error {
	return requireFields(EventCooling, map[string]bool{
		"cooling_date":     k.CoolingDate != "",
		"cooling_location": k.CoolingLocation != "",
		"temperature":      k.Temperature != "",
		"lot_code":         k.LotCode != "",
	})
}

// PackingKDE carries the mandatory attributes of a packing event.
type PackingKDE struct {
	PackingDate     string          `json:"packing_date"`
	PackingLocation string          `json:"packing_location"`
	LotCode         string          `json:"lot_code"`
	Quantity        decimal.Decimal `json:"quantity"`
}

func (k *PackingKDE) EventType() EventType { return EventPacking }

func (k *PackingKDE) Validate() error {
	return requireFields(EventPacking, map[string]bool{
		"packing_date":     k.PackingDate != "",
		"packing_location": k.PackingLocation != "",
		"lot_code":         k.LotCode != "",
		"quantity":         !k.Quantity.IsZero(),
	})
}

// ReceivingKDE carries the mandatory attributes of a receiving event.
// Quantity is optional; when present it is the base-unit amount received
// into the lot and feeds the derived balance.
type ReceivingKDE struct {
	ReceivingDate     string          `json:"receiving_date"`
	ReceivingLocation string          `json:"receiving_location"`
	ReferenceLotCode  string          `json:"reference_lot_code"`
	SupplierInfo      string          `json:"supplier_info"`
	Quantity          decimal.Decimal `json:"quantity,omitempty"`
}

func (k *ReceivingKDE) EventType() EventType { return EventReceiving }

func (k *ReceivingKDE) Validate() error {
	return requireFields(EventReceiving, map[string]bool{
		"receiving_date":     k.ReceivingDate != "",
		"receiving_location": k.ReceivingLocation != "",
		"reference_lot_code": k.ReferenceLotCode != "",
		"supplier_info":      k.SupplierInfo != "",
	})
}

// ShippingKDE carries the mandatory attributes of a shipping event.
type ShippingKDE struct {
	ShippingDate     string `json:"shipping_date"`
	ShippingLocation string `json:"shipping_location"`
	LotCode          string `json:"lot_code"`
	Destination      string `json:"destination"`
	TransportInfo    string `json:"transport_info"`
}

func (k *ShippingKDE) EventType() EventType { return EventShipping }

func (k *ShippingKDE) Validate() error {
	return requireFields(EventShipping, map[string]bool{
		"shipping_date":     k.ShippingDate != "",
		"shipping_location": k.ShippingLocation != "",
		"lot_code":          k.LotCode != "",
		"destination":       k.Destination != "",
		"transport_info":    k.TransportInfo != "",
	})
}

// TransformationKDE carries the mandatory attributes of a transformation
// event.
type TransformationKDE struct {
	TransformationDate     string   `json:"transformation_date"`
	TransformationLocation string   `json:"transformation_location"`
	InputLotCodes          []string `json:"input_lot_codes"`
	OutputLotCode          string   `json:"output_lot_code"`
}

func (k *TransformationKDE) EventType() EventType { return EventTransformation }

func (k *TransformationKDE) Validate() error {
	return requireFields(EventTransformation, map[string]bool{
		"transformation_date":     k.TransformationDate != "",
		"transformation_location": k.TransformationLocation != "",
		"input_lot_codes":         len(k.InputLotCodes) > 0,
		"output_lot_code":         k.OutputLotCode != "",
	})
}

// FirstReceivingKDE carries the mandatory attributes of a first-receiving
// (import entry) event. ExporterCountry is an ISO 3166-1 alpha-2 code.
type FirstReceivingKDE struct {
	ExporterFacilityCode string `json:"exporter_facility_code"`
	ExporterName         string `json:"exporter_name"`
	ExporterCountry      string `json:"exporter_country"`
	DateOfEntry          string `json:"date_of_entry"`
}

func (k *FirstReceivingKDE) EventType() EventType { return EventFirstReceiving }

// ErrCountryCodeInvalid reports an exporter country that is not a
// two-letter uppercase ISO code.
var ErrCountryCodeInvalid = errors.New("exporter_country must be an ISO-2 country code")

func (k *FirstReceivingKDE) Validate() error {
	if err := requireFields(EventFirstReceiving, map[string]bool{
		"exporter_facility_code": k.ExporterFacilityCode != "",
		"exporter_name":          k.ExporterName != "",
		"exporter_country":       k.ExporterCountry != "",
		"date_of_entry":          k.DateOfEntry != "",
	}); err != nil {
		return err
	}
	if len(k.ExporterCountry) != 2 || !isUpperAlpha(k.ExporterCountry) {
		return ErrCountryCodeInvalid
	}
	return nil
}

// requiredKDEFields lists the mandatory field names per event type, in
// the order they are reported when missing.
var requiredKDEFields = map[EventType][]string{
	EventHarvest:        {"harvest_date", "harvest_location", "farm_identification", "commodity"},
	EventCooling:        {"cooling_date", "cooling_location", "temperature", "lot_code"},
	EventPacking:        {"packing_date", "packing_location", "lot_code", "quantity"},
	EventReceiving:      {"receiving_date", "receiving_location", "reference_lot_code", "supplier_info"},
	EventShipping:       {"shipping_date", "shipping_location", "lot_code", "destination", "transport_info"},
	EventTransformation: {"transformation_date", "transformation_location", "input_lot_codes", "output_lot_code"},
	EventFirstReceiving: {"exporter_facility_code", "exporter_name", "exporter_country", "date_of_entry"},
}

// RequiredKDEFields returns the mandatory field names for an event type.
func RequiredKDEFields(et EventType) []string {
	out := make([]string, len(requiredKDEFields[et]))
	copy(out, requiredKDEFields[et])
	return out
}

// requireFields builds a *KDEError from the fields whose presence check
// failed, preserving the canonical field order. Returns nil when all
// required fields are present.
func requireFields(et EventType, present map[string]bool) error {
	var missing []string
	for _, field := range requiredKDEFields[et] {
		if !present[field] {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return &KDEError{EventType: et, Missing: missing}
	}
	return nil
}

// DecodeKDE converts a generic key/value map into the typed KDE variant
// for the event type. Unknown keys are ignored; the result is validated
// against the mandatory field table. Collaborators submitting events over
// loosely typed transports decode through here so missing-field errors
// stay uniform.
func DecodeKDE(et EventType, kdeMap map[string]any) (KDESet, error) {
	if !validEventTypes[et] {
		return nil, ErrEventTypeInvalid
	}

	var target KDESet
	switch et {
	case EventHarvest:
		target = &HarvestKDE{}
	case EventCooling:
		target = &CoolingKDE{}
	case EventPacking:
		target = &PackingKDE{}
	case EventReceiving:
		target = &ReceivingKDE{}
	case EventShipping:
		target = &ShippingKDE{}
	case EventTransformation:
		target = &TransformationKDE{}
	case EventFirstReceiving:
		target = &FirstReceivingKDE{}
	}

	raw, err := json.Marshal(kdeMap)
	if err != nil {
		return nil, fmt.Errorf("encoding kde map: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("decoding %s kde: %w", et, err)
	}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	return target, nil
}

// isUpperAlpha reports whether s consists solely of A-Z.
func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
