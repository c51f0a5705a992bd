package dto

// CreateRoomRequest adds a bookable room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=64"`
	Capacity int    `json:"capacity" validate:"required,min=1,max=10000"`
}

// UpdateRoomRequest rewrites room fields; zero values leave the field
// unchanged.
type UpdateRoomRequest struct {
	Name     string `json:"name" validate:"omitempty,min=1,max=64"`
	Capacity int    `json:"capacity" validate:"omitempty,min=1,max=10000"`
}
