package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSortEventsByDateThenSequence(t *testing.T) {
	jan := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	events := []Event{
		{Sequence: 3, Type: EventSell, Date: jun},
		{Sequence: 2, Type: EventDividend, Date: jan},
		{Sequence: 1, Type: EventBuy, Date: jan},
	}
	SortEvents(events)

	assert.Equal(t, int64(1), events[0].Sequence, "same-day ties break on sequence")
	assert.Equal(t, int64(2), events[1].Sequence)
	assert.Equal(t, int64(3), events[2].Sequence)
}

func TestSortEventsIsDeterministic(t *testing.T) {
	jan := time.Date(2023, 1, 5, 0, 0, 0, 0, time.UTC)
	a := []Event{
		{Sequence: 2, Type: EventSell, Date: jan},
		{Sequence: 1, Type: EventBuy, Date: jan},
	}
	b := []Event{
		{Sequence: 1, Type: EventBuy, Date: jan},
		{Sequence: 2, Type: EventSell, Date: jan},
	}
	SortEvents(a)
	SortEvents(b)
	assert.Equal(t, a, b, "input order must not influence the processed order")
}
