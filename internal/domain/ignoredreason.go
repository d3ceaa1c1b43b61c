package domain

import "time"

// IgnoredReason marks an adjustment-reason string as excluded from aggregate
// totals for one tenant. The underlying LossEvent rows are never touched;
// only the aggregator consults this flag. Toggling flips Ignorado in place,
// so one row exists per (tenant, motivo) regardless of how often it is
// toggled.
type IgnoredReason struct {
	ID          int64     `json:"id"`
	Tenant      string    `json:"tenant"`
	Motivo      string    `json:"motivo"`
	Ignorado    bool      `json:"ignorado"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}
