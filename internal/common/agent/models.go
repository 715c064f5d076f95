// internal/common/agent/models.go
package agent

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// FlexString decodes a JSON string, number, bool or null into a string.
// The agent emits seat counts and distances as either strings or numbers.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = FlexString(strconv.FormatBool(b))
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

type ParkingRecord struct {
	Name           FlexString `json:"parking_name"`
	Type           FlexString `json:"parking_type"`
	AvailableSeats FlexString `json:"available_seats"`
	FeeDescription FlexString `json:"parking_fee_description"`
	AvailableTime  FlexString `json:"available_time"`
	GoogleMapsURL  FlexString `json:"google_maps_url"`
}

type ToiletRecord struct {
	Name            FlexString `json:"toilet_name"`
	Type            FlexString `json:"toilet_type"`
	Distance        FlexString `json:"toilet_distance"`
	Address         FlexString `json:"toilet_address"`
	AvailableSeats  FlexString `json:"toilet_available_seats"`
	AccessibleSeats FlexString `json:"toilet_accessible_seats"`
	FamilySeats     FlexString `json:"toilet_family_seats"`
	GoogleMapsURL   FlexString `json:"toilet_google_maps_url"`
}

// StructuredResult is the answer of /get_agent_structure_response.
type StructuredResult struct {
	ParkingList []ParkingRecord `json:"parking_list"`
	ToiletList  []ToiletRecord  `json:"toilet_list"`
}

func (r StructuredResult) Empty() bool {
	return len(r.ParkingList) == 0 && len(r.ToiletList) == 0
}
