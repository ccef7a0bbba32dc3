package runner

import (
	"fmt"
	"time"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/models"
)

// Источники сообщений: шаг цикла, на котором оно возникло.
const (
	SourceCreatePosition    = "create_position"
	SourceCloseAllPositions = "close_all_positions"
	SourceClosePosition     = "close_position"
	SourceEditPosition      = "edit_position"
	SourceTrailingStop      = "evaluate_trailing_stop"
	SourceReconcile         = "reconcile"
	SourceMarketStatus      = "market_status"
	SourceStrategy          = "strategy"
	SourceMarketDetails     = "get_market_details"
	SourceAccount           = "get_account"
	SourceOpenPositions     = "get_open_positions"
	SourcePrices            = "get_prices"
	SourceHistory           = "history"
	SourceSession           = "session"
)

type report struct {
	r   models.CycleReport
	now func() time.Time
}

func newReport(marketID string, sig models.Signal, now func() time.Time) *report {
	return &report{r: models.CycleReport{MarketID: marketID, Signal: sig}, now: now}
}

func (rep *report) add(t models.MessageType, source, format string, args ...any) {
	rep.r.Messages = append(rep.r.Messages, models.Message{
		Type:   t,
		Source: source,
		Time:   rep.now().UTC(),
		Text:   fmt.Sprintf(format, args...),
	})
}

func (rep *report) info(source, format string, args ...any) {
	rep.add(models.MessageInfo, source, format, args...)
}

func (rep *report) success(source, format string, args ...any) {
	rep.add(models.MessageSuccess, source, format, args...)
}

func (rep *report) warn(source, format string, args ...any) {
	rep.add(models.MessageWarning, source, format, args...)
}

func (rep *report) errorf(source, format string, args ...any) {
	rep.add(models.MessageError, source, format, args...)
}

// brokerErr помечает ошибку брокера исходом: отказ или транспорт.
func (rep *report) brokerErr(source string, err error) {
	out, reason := broker.Classify(err)
	switch out {
	case broker.OutcomeRejected:
		rep.errorf(source, "rejected: %s", reason)
	default:
		rep.errorf(source, "transport failure: %s", reason)
	}
}
