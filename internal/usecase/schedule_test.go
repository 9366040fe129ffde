package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/semmidev/sqlbackup/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIsDue(t *testing.T) {
	Convey("Given a run schedule for Wednesdays and the 31st", t, func() {
		schedule := domain.RunSchedule{DayOfWeek: time.Wednesday, DayOfMonth: 31}

		Convey("Daily databases are always due", func() {
			for day := 0; day < 400; day += 7 {
				today := time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local).AddDate(0, 0, day)
				due, err := IsDue(domain.FrequencyDaily, schedule, today)
				So(err, ShouldBeNil)
				So(due, ShouldBeTrue)
			}
		})

		Convey("Weekly databases are due only on the configured weekday", func() {
			// 2024-01-07 is a Sunday.
			for offset := 0; offset < 7; offset++ {
				today := time.Date(2024, 1, 7+offset, 8, 30, 0, 0, time.Local)
				due, err := IsDue(domain.FrequencyWeekly, schedule, today)
				So(err, ShouldBeNil)
				So(due, ShouldEqual, today.Weekday() == time.Wednesday)
			}
		})

		Convey("Every weekday name matches exactly one day of a week", func() {
			for _, name := range []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"} {
				weekday, err := domain.ParseWeekday(name)
				So(err, ShouldBeNil)

				matches := 0
				for offset := 0; offset < 7; offset++ {
					today := time.Date(2024, 1, 7+offset, 0, 0, 0, 0, time.Local)
					due, _ := IsDue(domain.FrequencyWeekly, domain.RunSchedule{DayOfWeek: weekday}, today)
					if due {
						matches++
						So(today.Weekday(), ShouldEqual, weekday)
					}
				}
				So(matches, ShouldEqual, 1)
			}
		})

		Convey("Monthly databases are due only on the configured day", func() {
			for day := 1; day <= 31; day++ {
				today := time.Date(2024, 1, day, 23, 59, 0, 0, time.Local)
				due, err := IsDue(domain.FrequencyMonthly, schedule, today)
				So(err, ShouldBeNil)
				So(due, ShouldEqual, day == 31)
			}
		})

		Convey("A day of month missing from the month never matches", func() {
			for day := 1; day <= 29; day++ {
				today := time.Date(2024, 2, day, 12, 0, 0, 0, time.Local)
				due, err := IsDue(domain.FrequencyMonthly, schedule, today)
				So(err, ShouldBeNil)
				So(due, ShouldBeFalse)
			}
		})

		Convey("An unknown frequency is an error", func() {
			due, err := IsDue(domain.Frequency("hourly"), schedule, time.Now())
			So(due, ShouldBeFalse)
			So(errors.Is(err, domain.ErrBadFrequency), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "hourly")
		})
	})
}
