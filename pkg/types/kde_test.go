package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKDE(t *testing.T) {
	tests := []struct {
		name        string
		eventType   EventType
		kdeMap      map[string]any
		wantMissing []string
		wantErr     error
	}{
		{
			name:      "harvest complete",
			eventType: EventHarvest,
			kdeMap: map[string]any{
				"harvest_date":        "2025-01-01",
				"harvest_location":    "field 7",
				"farm_identification": "FARM-001",
				"commodity":           "romaine",
			},
		},
		{
			name:      "harvest missing two fields",
			eventType: EventHarvest,
			kdeMap: map[string]any{
				"harvest_date": "2025-01-01",
				"commodity":    "romaine",
			},
			wantMissing: []string{"harvest_location", "farm_identification"},
		},
		{
			name:      "cooling complete",
			eventType: EventCooling,
			kdeMap: map[string]any{
				"cooling_date":     "2025-01-02",
				"cooling_location": "cooler 3",
				"temperature":      "4C",
				"lot_code":         "TLC-1",
			},
		},
		{
			name:        "packing requires quantity",
			eventType:   EventPacking,
			kdeMap:      map[string]any{"packing_date": "2025-01-03", "packing_location": "line 2", "lot_code": "TLC-1"},
			wantMissing: []string{"quantity"},
		},
		{
			name:      "shipping complete",
			eventType: EventShipping,
			kdeMap: map[string]any{
				"shipping_date":     "2025-01-05",
				"shipping_location": "dock 1",
				"lot_code":          "TLC-1",
				"destination":       "DC-9",
				"transport_info":    "reefer truck 44",
			},
		},
		{
			name:      "transformation requires input codes",
			eventType: EventTransformation,
			kdeMap: map[string]any{
				"transformation_date":     "2025-01-04",
				"transformation_location": "plant A",
				"input_lot_codes":         []string{},
				"output_lot_code":         "TLC-2",
			},
			wantMissing: []string{"input_lot_codes"},
		},
		{
			name:      "first receiving complete",
			eventType: EventFirstReceiving,
			kdeMap: map[string]any{
				"exporter_facility_code": "EXP-77",
				"exporter_name":          "Frutas del Sur",
				"exporter_country":       "CL",
				"date_of_entry":          "2025-02-01",
			},
		},
		{
			name:      "first receiving rejects bad country code",
			eventType: EventFirstReceiving,
			kdeMap: map[string]any{
				"exporter_facility_code": "EXP-77",
				"exporter_name":          "Frutas del Sur",
				"exporter_country":       "chile",
				"date_of_entry":          "2025-02-01",
			},
			wantErr: ErrCountryCodeInvalid,
		},
		{
			name:      "unknown event type",
			eventType: EventType("fermenting"),
			kdeMap:    map[string]any{},
			wantErr:   ErrEventTypeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kde, err := DecodeKDE(tt.eventType, tt.kdeMap)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.wantMissing != nil {
				var kdeErr *KDEError
				require.ErrorAs(t, err, &kdeErr)
				assert.ErrorIs(t, err, ErrMissingRequiredKDE)
				assert.Equal(t, tt.wantMissing, kdeErr.Missing)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.eventType, kde.EventType())
		})
	}
}

func TestDecodeKDEIgnoresUnknownKeys(t *testing.T) {
	kde, err := DecodeKDE(EventHarvest, map[string]any{
		"harvest_date":        "2025-01-01",
		"harvest_location":    "field 7",
		"farm_identification": "FARM-001",
		"commodity":           "romaine",
		"operator_nickname":   "Sal",
	})
	require.NoError(t, err)

	h, ok := kde.(*HarvestKDE)
	require.True(t, ok)
	assert.Equal(t, "romaine", h.Commodity)
}

func TestRequiredKDEFields(t *testing.T) {
	for et := range validEventTypes {
		assert.NotEmpty(t, RequiredKDEFields(et), "event type %s must declare required fields", et)
	}
}

func TestEventValidate(t *testing.T) {
	kde := &HarvestKDE{
		HarvestDate:        "2025-01-01",
		HarvestLocation:    "field 7",
		FarmIdentification: "FARM-001",
		Commodity:          "romaine",
	}

	e := &Event{Type: EventHarvest, FacilityID: "fac-1", KDE: kde}
	assert.ErrorIs(t, e.Validate(), ErrEventTimestampZero)

	e.Timestamp = mustTime(t, "2025-01-01T08:00:00Z")
	require.NoError(t, e.Validate())

	// KDE variant must match the event type.
	e.Type = EventCooling
	assert.ErrorIs(t, e.Validate(), ErrEventTypeInvalid)

	// Nil KDE reports the full required set.
	e.Type = EventHarvest
	e.KDE = nil
	var kdeErr *KDEError
	require.ErrorAs(t, e.Validate(), &kdeErr)
	assert.Len(t, kdeErr.Missing, 4)
}
