package models

// Position is a row of the positions reference table. CreatedBy is the id of
// the user who created it, stored in the "id" column.
type Position struct {
	PositionID   int64  `json:"position_id"`
	PositionCode string `json:"position_code"`
	PositionName string `json:"position_name"`
	CreatedBy    *int64 `json:"id"`
}

type PositionPatch struct {
	PositionCode *string
	PositionName *string
}
