package types

import (
	"errors"
	"time"
)

// FacilityType identifies a node class in the physical supply chain.
type FacilityType string

// Recognized facility types.
const (
	FacilityFarm         FacilityType = "farm"
	FacilityPackingHouse FacilityType = "packing_house"
	FacilityProcessor    FacilityType = "processor"
	FacilityDistributor  FacilityType = "distributor"
	FacilityRetailer     FacilityType = "retailer"
	FacilityImporter     FacilityType = "importer"
	FacilityPort         FacilityType = "port"
)

// validFacilityTypes is the set of recognized facility type values.
var validFacilityTypes = map[FacilityType]bool{
	FacilityFarm:         true,
	FacilityPackingHouse: true,
	FacilityProcessor:    true,
	FacilityDistributor:  true,
	FacilityRetailer:     true,
	FacilityImporter:     true,
	FacilityPort:         true,
}

// facilityCapabilities maps each facility type to the event types it is
// permitted to originate. The table is fixed; the collaborator's
// authorization layer decides who acts for a facility, this table decides
// what a facility can do at all.
var facilityCapabilities = map[FacilityType][]EventType{
	FacilityFarm:         {EventHarvest, EventCooling, EventShipping},
	FacilityPackingHouse: {EventCooling, EventPacking, EventShipping},
	FacilityProcessor:    {EventReceiving, EventTransformation, EventShipping},
	FacilityDistributor:  {EventReceiving, EventShipping},
	FacilityRetailer:     {EventReceiving},
	FacilityImporter:     {EventFirstReceiving, EventReceiving},
	FacilityPort:         {EventFirstReceiving},
}

// Facility is a node in the physical supply chain.
type Facility struct {
	FacilityID   string       `json:"facility_id"`
	CompanyID    string       `json:"company_id"`
	Name         string       `json:"name"`
	Type         FacilityType `json:"type"`
	LocationCode string       `json:"location_code"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Facility validation errors.
var (
	ErrFacilityTypeInvalid = errors.New("unknown facility type")
	ErrFacilityNameEmpty   = errors.New("facility name must not be empty")
)

// Validate checks that the facility is well-formed.
func (f *Facility) Validate() error {
	if f.Name == "" {
		return ErrFacilityNameEmpty
	}
	if !validFacilityTypes[f.Type] {
		return ErrFacilityTypeInvalid
	}
	return nil
}

// CanOriginate reports whether this facility's type is permitted to
// originate events of the given type.
func (f *Facility) CanOriginate(et EventType) bool {
	for _, allowed := range facilityCapabilities[f.Type] {
		if allowed == et {
			return true
		}
	}
	return false
}

// PermittedEvents returns the event types this facility may originate.
func (f *Facility) PermittedEvents() []EventType {
	out := make([]EventType, len(facilityCapabilities[f.Type]))
	copy(out, facilityCapabilities[f.Type])
	return out
}
