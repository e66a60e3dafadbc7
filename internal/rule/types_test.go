package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tradecal/internal/date"
)

func TestEqual_ComparesOptionalsByValue(t *testing.T) {
	a := MovableYearlyDay{Month: 7, Day: 4, First: Year(2000), HalfCheck: Half(Before)}
	b := MovableYearlyDay{Month: 7, Day: 4, First: Year(2000), HalfCheck: Half(Before)}
	assert.True(t, Equal(a, b))

	b.First = Year(2001)
	assert.False(t, Equal(a, b))

	b.First = nil
	assert.False(t, Equal(a, b))
}

func TestEqual_DifferentVariants(t *testing.T) {
	assert.False(t, Equal(WeekDay{Weekday: date.Saturday}, SingularDay{Date: date.MustNew(2020, time.January, 4)}))
}

func TestEqualList_OrderMatters(t *testing.T) {
	a := []Rule{WeekDay{Weekday: date.Saturday}, WeekDay{Weekday: date.Sunday}}
	b := []Rule{WeekDay{Weekday: date.Sunday}, WeekDay{Weekday: date.Saturday}}
	assert.False(t, EqualList(a, b))
	assert.True(t, EqualList(a, a))
	assert.False(t, EqualList(a, a[:1]))
}

func TestYearRange(t *testing.T) {
	tests := []struct {
		name        string
		first, last *int
		wantS       int
		wantE       int
	}{
		{"unbounded", nil, nil, 2000, 2050},
		{"first inside", Year(2016), nil, 2016, 2050},
		{"first before", Year(1990), nil, 2000, 2050},
		{"last inside", nil, Year(2020), 2000, 2020},
		{"both", Year(2010), Year(2012), 2010, 2012},
		{"empty", Year(2060), nil, 2060, 2050},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := YearRange(2000, 2050, tt.first, tt.last)
			assert.Equal(t, tt.wantS, s)
			assert.Equal(t, tt.wantE, e)
		})
	}
}

type countingVisitor struct {
	seen []string
}

func (c *countingVisitor) VisitWeekDay(WeekDay) error {
	c.seen = append(c.seen, KindWeekDay)
	return nil
}
func (c *countingVisitor) VisitMovableYearlyDay(MovableYearlyDay) error {
	c.seen = append(c.seen, KindMovableYearlyDay)
	return nil
}
func (c *countingVisitor) VisitSingularDay(SingularDay) error {
	c.seen = append(c.seen, KindSingularDay)
	return nil
}
func (c *countingVisitor) VisitEasterOffset(EasterOffset) error {
	c.seen = append(c.seen, KindEasterOffset)
	return nil
}
func (c *countingVisitor) VisitMonthWeekday(MonthWeekday) error {
	c.seen = append(c.seen, KindMonthWeekday)
	return nil
}

func TestAccept_DispatchesToVariant(t *testing.T) {
	v := &countingVisitor{}
	for _, r := range sampleRules() {
		assert.NoError(t, r.Accept(v))
	}
	assert.Equal(t, []string{KindMonthWeekday, KindMovableYearlyDay, KindSingularDay, KindWeekDay, KindEasterOffset}, v.seen)

	for i, r := range sampleRules() {
		assert.Equal(t, v.seen[i], r.Variant())
	}
}

func TestNthWeekAndHalfCheckText(t *testing.T) {
	var n NthWeek
	assert.NoError(t, n.UnmarshalText([]byte("Last")))
	assert.Equal(t, Last, n)
	assert.Equal(t, "Last", n.String())
	assert.Error(t, n.UnmarshalText([]byte("last")))

	var h HalfCheck
	assert.NoError(t, h.UnmarshalText([]byte("After")))
	assert.Equal(t, After, h)
	_, err := HalfCheck(5).MarshalText()
	assert.Error(t, err)
}
