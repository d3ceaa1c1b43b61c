package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quitanda/lossprev/internal/cache"
	"github.com/quitanda/lossprev/internal/erp"
)

// Service merges the ERP's current- and previous-month loss figures into one
// key-normalized index. ERP query failures degrade to an empty month; a
// reconciliation request never hard-fails on a missing product.
type Service struct {
	erp   erp.Querier
	cache *cache.FileCache
	log   *logrus.Logger
	now   func() time.Time
}

// NewService creates a reconciliation service. erp may be nil when no ERP is
// configured; every query then behaves as a failed remote call.
func NewService(q erp.Querier, c *cache.FileCache, log *logrus.Logger) *Service {
	return &Service{erp: q, cache: c, log: log, now: time.Now}
}

// MonthlyLosses queries the current and previous month concurrently, each
// behind the TTL cache, and accumulates both into a fresh Index. The two
// queries have no data dependency; the index is only built after both have
// finished. A failed month contributes nothing and is logged, not raised.
func (s *Service) MonthlyLosses(ctx context.Context) Index {
	now := s.now()
	curFrom := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	prevFrom := curFrom.AddDate(0, -1, 0)
	prevTo := curFrom.AddDate(0, 0, -1)

	var current, previous []erp.ProductLoss
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		current = s.monthLosses(ctx, curFrom, now)
	}()
	go func() {
		defer wg.Done()
		previous = s.monthLosses(ctx, prevFrom, prevTo)
	}()
	wg.Wait()

	idx := make(Index)
	for _, row := range current {
		idx.AddCurrent(row.Codigo, row.Barcode, row.Valor.Abs(), row.Quantidade.Abs())
	}
	for _, row := range previous {
		idx.AddPrevious(row.Codigo, row.Barcode, row.Valor.Abs(), row.Quantidade.Abs())
	}
	return idx
}

// monthLosses fetches one month's per-product losses through the cache.
// Any failure is logged and yields an empty month.
func (s *Service) monthLosses(ctx context.Context, from, to time.Time) []erp.ProductLoss {
	key := fmt.Sprintf("erp-perdas-%s", from.Format("2006-01"))

	payload, err := s.cache.Execute(key, func() (json.RawMessage, error) {
		if s.erp == nil {
			return nil, fmt.Errorf("erp não configurado")
		}
		rows, err := s.erp.ProductLosses(ctx, from, to)
		if err != nil {
			return nil, err
		}
		return json.Marshal(rows)
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"de":  from.Format("2006-01-02"),
			"ate": to.Format("2006-01-02"),
			"err": err,
		}).Warn("consulta de perdas no ERP falhou, mês tratado como vazio")
		return nil
	}

	var rows []erp.ProductLoss
	if err := json.Unmarshal(payload, &rows); err != nil {
		s.log.WithFields(logrus.Fields{"key": key, "err": err}).
			Warn("payload do cache inválido, mês tratado como vazio")
		return nil
	}
	return rows
}
