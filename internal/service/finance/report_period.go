package finance

import (
	"fmt"
	"time"

	"github.com/dumeirei/resort-fleet-backend/internal/common/errors"
)

// 报表月数默认值
const (
	DefaultReportMonths = 6
	MaxReportMonths     = 24
)

// ReportOptions 报表参数限制
type ReportOptions struct {
	DefaultMonths int
	MaxMonths     int
}

func (o ReportOptions) normalized() ReportOptions {
	if o.DefaultMonths <= 0 {
		o.DefaultMonths = DefaultReportMonths
	}
	if o.MaxMonths <= 0 {
		o.MaxMonths = MaxReportMonths
	}
	if o.DefaultMonths > o.MaxMonths {
		o.DefaultMonths = o.MaxMonths
	}
	return o
}

// PeriodQuery 报表时间范围与范围过滤
//
// 优先级：AllTime > StartDate/EndDate > Months。Months 为 0 时使用默认月数。
type PeriodQuery struct {
	Months    int
	StartDate *time.Time
	EndDate   *time.Time
	AllTime   bool
	ResortID  *int64
}

// resolvePeriod 把查询参数转换为统计窗口，同时返回窗口覆盖的月数
func resolvePeriod(q *PeriodQuery, now time.Time, opts ReportOptions) (Window, int, error) {
	opts = opts.normalized()
	if q == nil {
		q = &PeriodQuery{}
	}

	if q.AllTime {
		return AllTime(), 0, nil
	}

	if q.StartDate != nil || q.EndDate != nil {
		start, end := now, now
		if q.StartDate != nil {
			start = *q.StartDate
		}
		if q.EndDate != nil {
			end = *q.EndDate
		}
		if q.StartDate == nil {
			start = time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, end.Location())
		}
		if CalendarDate(end).Before(CalendarDate(start)) {
			return Window{}, 0, errors.ErrInvalidPeriod.WithMessage("结束日期不能早于开始日期")
		}
		w := RangeWindow(start, end)
		if len(w.Buckets) > opts.MaxMonths {
			return Window{}, 0, errors.ErrInvalidPeriod.WithMessage(
				fmt.Sprintf("统计范围不能超过 %d 个月", opts.MaxMonths))
		}
		return w, len(w.Buckets), nil
	}

	months := q.Months
	if months == 0 {
		months = opts.DefaultMonths
	}
	if months < 0 || months > opts.MaxMonths {
		return Window{}, 0, errors.ErrInvalidPeriod.WithMessage(
			fmt.Sprintf("月数必须在 1 到 %d 之间", opts.MaxMonths))
	}
	return MonthWindow(now, months), months, nil
}

// cacheKeyParts 窗口与度假村对应的缓存键片段
func (q *PeriodQuery) cacheKeyParts(w Window, months int) []string {
	var period string
	switch {
	case w.IsAllTime():
		period = "all"
	case q != nil && (q.StartDate != nil || q.EndDate != nil):
		period = fmt.Sprintf("range-%s-%s", w.Start.Format("20060102"), w.End.Format("20060102"))
	default:
		period = fmt.Sprintf("m%d", months)
	}

	scope := "all"
	if q != nil && q.ResortID != nil {
		scope = fmt.Sprintf("resort-%d", *q.ResortID)
	}
	return []string{scope, period}
}
