package processors

import (
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/taxledger/src/logger"
	"github.com/username/taxledger/src/models"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buy(isin, date, qty, price, fee string) models.Event {
	return models.Event{
		Type:     models.EventBuy,
		ISIN:     isin,
		Date:     day(date),
		Currency: "USD",
		Quantity: dec(qty),
		Price:    dec(price),
		Fee:      dec(fee),
	}
}

func sell(isin, date, qty, price, fee string) models.Event {
	ev := buy(isin, date, qty, price, fee)
	ev.Type = models.EventSell
	return ev
}
