package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/tradecal/internal/date"
	"github.com/roach88/tradecal/internal/rule"
)

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want date.Date
	}{
		{2000, date.MustNew(2000, time.April, 23)},
		{2008, date.MustNew(2008, time.March, 23)},
		{2011, date.MustNew(2011, time.April, 24)},
		{2019, date.MustNew(2019, time.April, 21)},
		{2021, date.MustNew(2021, time.April, 4)},
		{2022, date.MustNew(2022, time.April, 17)},
		{2024, date.MustNew(2024, time.March, 31)},
		{2038, date.MustNew(2038, time.April, 25)},
	}
	for _, tt := range tests {
		got := Easter(tt.year)
		assert.Equal(t, tt.want, got, "Easter %d", tt.year)
		assert.Equal(t, date.Sunday, got.Weekday())
	}
}

func TestNthWeekday(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		wd    date.Weekday
		nth   rule.NthWeek
		want  date.Date
	}{
		{"MLK 2022", 2022, time.January, date.Monday, rule.Third, date.MustNew(2022, time.January, 17)},
		{"Presidents 2022", 2022, time.February, date.Monday, rule.Third, date.MustNew(2022, time.February, 21)},
		{"third Wednesday of March", 2022, time.March, date.Wednesday, rule.Third, date.MustNew(2022, time.March, 16)},
		{"Memorial 2021", 2021, time.May, date.Monday, rule.Last, date.MustNew(2021, time.May, 31)},
		{"Labor 2021", 2021, time.September, date.Monday, rule.First, date.MustNew(2021, time.September, 6)},
		{"Thanksgiving 2021", 2021, time.November, date.Thursday, rule.Fourth, date.MustNew(2021, time.November, 25)},
		{"first Monday November 2019", 2019, time.November, date.Monday, rule.First, date.MustNew(2019, time.November, 4)},
		{"last Thursday of leap February", 2024, time.February, date.Thursday, rule.Last, date.MustNew(2024, time.February, 29)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NthWeekday(tt.year, tt.month, tt.wd, tt.nth)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNthWeekday_InvalidMonth(t *testing.T) {
	_, err := NthWeekday(2021, 13, date.Monday, rule.First)
	assert.True(t, date.IsInvalidDate(err))

	_, err = NthWeekday(2021, 0, date.Monday, rule.Last)
	assert.True(t, date.IsInvalidDate(err))
}
