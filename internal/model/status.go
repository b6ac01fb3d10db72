package model

import "time"

// Attribute tags a node of the Status tree.
type Attribute string

const (
	AttributeInspections      Attribute = "Inspections"
	AttributePatients         Attribute = "Patients"
	AttributeHospitalizations Attribute = "Hospitalizations"
	AttributeSeverelyPatients Attribute = "SeverelyPatients"
	AttributeOther            Attribute = "Other"
	AttributeAccommodations   Attribute = "Accommodations"
	AttributeHome             Attribute = "Home"
	AttributeDead             Attribute = "Dead"
	AttributeLeave            Attribute = "Leave"
	AttributeCoordinating     Attribute = "Coordinating"
)

// Status is a node of the current case-status breakdown.
//
// Only the root and its Patients child carry LastUpdate; leaves leave it nil.
type Status struct {
	Attr       Attribute  `json:"attr"`
	Value      uint32     `json:"value"`
	Children   []Status   `json:"children,omitempty"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

// Child returns the first direct child tagged attr.
func (s *Status) Child(attr Attribute) (*Status, bool) {
	for i := range s.Children {
		if s.Children[i].Attr == attr {
			return &s.Children[i], true
		}
	}

	return nil, false
}
