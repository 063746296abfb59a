package dto

// CoordinatesInput is the optional location pin sent by clients. The web client
// sends lat/lng, the iOS client latitude/longitude.
type CoordinatesInput struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// Point resolves whichever spelling was sent.
func (c *CoordinatesInput) Point() (lat, lng *float64) {
	if c == nil {
		return nil, nil
	}
	lat, lng = c.Latitude, c.Longitude
	if lat == nil {
		lat = c.Lat
	}
	if lng == nil {
		lng = c.Lng
	}
	return lat, lng
}

// CreateReportRequest is the submitter's draft. Submitter name and email come
// from the authenticated actor, never from the body.
type CreateReportRequest struct {
	ID                  string            `json:"id,omitempty"`
	Type                string            `json:"type" validate:"required,oneof=lost found"`
	Category            string            `json:"category" validate:"required"`
	Title               string            `json:"title" validate:"required,max=64"`
	Description         string            `json:"description" validate:"max=1000"`
	LocationBuilding    string            `json:"locationBuilding" validate:"max=64"`
	LocationCoordinates *CoordinatesInput `json:"locationCoordinates"`
	ImageURL            string            `json:"imageUrl" validate:"omitempty,url,max=2048"`
	CreatedByPhone      string            `json:"createdByPhone"`
}

// TransitionRequest asks for a status change.
type TransitionRequest struct {
	Status string `json:"status"`
}

// SearchQuery mirrors the public search filters.
type SearchQuery struct {
	Category string
	Query    string
}

// MeResponse describes the authenticated caller.
type MeResponse struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}

// DeleteResponse acknowledges a hard delete.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}
