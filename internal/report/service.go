package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/domain"
	"github.com/quitanda/lossprev/internal/repository"
)

// EventSource provides the events of a report range. Satisfied by
// repository.LossEventRepo.
type EventSource interface {
	ListInRange(f repository.EventFilter) ([]domain.LossEvent, error)
}

// ReasonPolicy provides the ignored-reason overlay. Satisfied by
// repository.IgnoredReasonRepo.
type ReasonPolicy interface {
	IgnoredSet(tenant string) (map[string]bool, error)
}

// Filter is one report request. From and To are required; Tipo narrows the
// product ranking to "perdas" or "entradas" (empty means both).
type Filter struct {
	Tenant  string
	From    time.Time
	To      time.Time
	Motivo  string
	Produto string
	Tipo    string
	Page    int
	Limit   int
}

// DefaultPageSize is the product-ranking page size when none is requested.
const DefaultPageSize = 50

// Service computes aggregate loss reports. It is a pure read-then-compute
// pass over one snapshot of the store: no locking, and a concurrent import
// may or may not be reflected.
type Service struct {
	events EventSource
	policy ReasonPolicy
	log    *logrus.Logger
}

func NewService(events EventSource, policy ReasonPolicy, log *logrus.Logger) *Service {
	return &Service{events: events, policy: policy, log: log}
}

// Aggregate builds the loss report for a range. Summary totals come from the
// active (non-ignored) subset only; the per-reason ranking cards cover all
// rows so ignored reasons remain visible, tagged with Ignorado.
func (s *Service) Aggregate(f Filter) (*domain.Report, error) {
	if f.From.IsZero() || f.To.IsZero() {
		return nil, fmt.Errorf("período (from/to) é obrigatório")
	}
	if f.Tenant == "" {
		f.Tenant = "default"
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Page <= 0 {
		f.Page = 1
	}

	events, err := s.events.ListInRange(repository.EventFilter{
		Tenant:  f.Tenant,
		From:    f.From,
		To:      f.To,
		Motivo:  f.Motivo,
		Produto: f.Produto,
	})
	if err != nil {
		return nil, fmt.Errorf("buscar eventos: %w", err)
	}

	ignored, err := s.policy.IgnoredSet(f.Tenant)
	if err != nil {
		return nil, fmt.Errorf("buscar motivos ignorados: %w", err)
	}

	var losses, entries []domain.LossEvent
	for _, ev := range events {
		if ev.IsLoss() {
			losses = append(losses, ev)
		} else {
			entries = append(entries, ev)
		}
	}

	rpt := &domain.Report{
		Estatisticas:    statistics(losses, entries, ignored),
		MotivosRanking:  rankReasons(losses, ignored),
		EntradasRanking: rankReasons(entries, ignored),
	}

	products := rankProducts(losses, entries, ignored, f.Tipo)
	rpt.ProdutosRanking, rpt.Paginacao = paginate(products, f.Page, f.Limit)

	s.log.WithFields(logrus.Fields{
		"tenant":   f.Tenant,
		"eventos":  len(events),
		"perdas":   rpt.Estatisticas.TotalPerdas,
		"entradas": rpt.Estatisticas.TotalEntradas,
	}).Debug("relatório agregado")

	return rpt, nil
}

// statistics computes the summary over the active subset only.
func statistics(losses, entries []domain.LossEvent, ignored map[string]bool) domain.Estatisticas {
	var st domain.Estatisticas
	for _, ev := range losses {
		if ignored[ev.Motivo] {
			continue
		}
		st.TotalPerdas++
		st.ValorTotalPerdas = st.ValorTotalPerdas.Add(ev.Valor())
	}
	for _, ev := range entries {
		if ignored[ev.Motivo] {
			continue
		}
		st.TotalEntradas++
		st.ValorTotalEntradas = st.ValorTotalEntradas.Add(ev.Valor())
	}
	return st
}

// rankReasons aggregates one side (losses or entries) per reason over all
// rows, ignored included, sorted by absolute value descending. A reason whose
// rows are all ignored still appears, flagged, with its would-be value.
func rankReasons(events []domain.LossEvent, ignored map[string]bool) []domain.MotivoRanking {
	byReason := make(map[string]*domain.MotivoRanking)
	for _, ev := range events {
		mr, ok := byReason[ev.Motivo]
		if !ok {
			mr = &domain.MotivoRanking{Motivo: ev.Motivo, Ignorado: ignored[ev.Motivo]}
			byReason[ev.Motivo] = mr
		}
		mr.Ocorrencias++
		mr.Quantidade = mr.Quantidade.Add(ev.Quantidade.Abs())
		mr.ValorTotal = mr.ValorTotal.Add(ev.Valor())
	}

	ranking := make([]domain.MotivoRanking, 0, len(byReason))
	for _, mr := range byReason {
		ranking = append(ranking, *mr)
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		cmp := ranking[i].ValorTotal.Abs().Cmp(ranking[j].ValorTotal.Abs())
		if cmp != 0 {
			return cmp > 0
		}
		return ranking[i].Motivo < ranking[j].Motivo
	})
	return ranking
}

// rankProducts aggregates the active subset per product, honouring the type
// filter. Products are keyed by barcode plus description because vendor rows
// may carry either identifier alone.
func rankProducts(losses, entries []domain.LossEvent, ignored map[string]bool, tipo string) []domain.ProdutoRanking {
	var side []domain.LossEvent
	switch tipo {
	case "perdas":
		side = losses
	case "entradas":
		side = entries
	default:
		side = append(append([]domain.LossEvent{}, losses...), entries...)
	}

	byProduct := make(map[string]*domain.ProdutoRanking)
	for _, ev := range side {
		if ignored[ev.Motivo] {
			continue
		}
		key := ev.Barcode + "\x00" + ev.Descricao
		pr, ok := byProduct[key]
		if !ok {
			pr = &domain.ProdutoRanking{
				Barcode:   ev.Barcode,
				Descricao: ev.Descricao,
				Secao:     ev.SecaoNome,
			}
			byProduct[key] = pr
		}
		pr.Ocorrencias++
		pr.Quantidade = pr.Quantidade.Add(ev.Quantidade.Abs())
		pr.ValorTotal = pr.ValorTotal.Add(ev.Valor())
	}

	ranking := make([]domain.ProdutoRanking, 0, len(byProduct))
	for _, pr := range byProduct {
		ranking = append(ranking, *pr)
	}
	sort.SliceStable(ranking, func(i, j int) bool {
		cmp := ranking[i].ValorTotal.Abs().Cmp(ranking[j].ValorTotal.Abs())
		if cmp != 0 {
			return cmp > 0
		}
		if ranking[i].Descricao != ranking[j].Descricao {
			return ranking[i].Descricao < ranking[j].Descricao
		}
		return ranking[i].Barcode < ranking[j].Barcode
	})
	return ranking
}

// paginate slices a ranking with 1-based page numbers. Pages past the end
// return an empty slice, never an error.
func paginate(items []domain.ProdutoRanking, page, limit int) ([]domain.ProdutoRanking, domain.Paginacao) {
	total := len(items)
	totalPages := (total + limit - 1) / limit

	pg := domain.Paginacao{
		Pagina:       page,
		PorPagina:    limit,
		TotalItens:   total,
		TotalPaginas: totalPages,
	}

	start := (page - 1) * limit
	if start >= total {
		return []domain.ProdutoRanking{}, pg
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], pg
}
