package models

// Requests for the status API endpoints. Defined in domain for consistency and reuse.

type SymbolRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
}

type EpisodesRequest struct {
	Strategy string `query:"strategy" json:"strategy" validate:"omitempty,oneof=strategy1 strategy2 strategy3 strategy4 strategy5"`
	N        int    `query:"n" json:"n" default:"50" validate:"gte=1,lte=500"`
}
