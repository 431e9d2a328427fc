package dto

import "crowdwatch/internal/model"

// ZoneRequest is the create-zone payload.
type ZoneRequest struct {
	Name        string        `json:"name"`
	Coordinates []model.Point `json:"coordinates"`
}

// ZoneList wraps the zones owned by the requesting user.
type ZoneList struct {
	Zones []model.Zone `json:"zones"`
}
