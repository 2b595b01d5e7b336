package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestNewDate(t *testing.T) {
	wita := time.FixedZone("WITA", 8*3600)
	d := NewDate(time.Date(2024, time.March, 1, 1, 30, 0, 0, wita))

	assert.Equal(t, DateOf(2024, time.March, 1), d)
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "2024-03-01", d.String())

	assert.True(t, NewDate(time.Time{}).IsZero())
	assert.Equal(t, "", Date{}.String())
}

func TestDate_Compare(t *testing.T) {
	a := DateOf(2024, time.January, 31)
	b := DateOf(2024, time.February, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.False(t, a.Before(a))
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Date  Date  `json:"date"`
		Until *Date `json:"until,omitempty"`
		Empty Date  `json:"empty"`
	}

	until := DateOf(2024, time.December, 31)
	data, err := json.Marshal(payload{Date: DateOf(2024, time.March, 15), Until: &until})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-03-15","until":"2024-12-31","empty":null}`, string(data))

	var got payload
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, DateOf(2024, time.March, 15), got.Date)
	require.NotNil(t, got.Until)
	assert.Equal(t, until, *got.Until)
	assert.True(t, got.Empty.IsZero())

	t.Run("兼容带时间的格式", func(t *testing.T) {
		var d Date
		require.NoError(t, json.Unmarshal([]byte(`"2024-03-15T23:10:00+08:00"`), &d))
		assert.Equal(t, DateOf(2024, time.March, 15), d)

		require.NoError(t, json.Unmarshal([]byte(`""`), &d))
		assert.True(t, d.IsZero())
	})

	t.Run("非法输入", func(t *testing.T) {
		var d Date
		assert.Error(t, json.Unmarshal([]byte(`"15/03/2024"`), &d))
		assert.Error(t, json.Unmarshal([]byte(`20240315`), &d))
	})
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, DateOf(2024, time.February, 29), d)

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
	_, err = ParseDate("03/05/2024")
	assert.Error(t, err)
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
		want  Date
	}{
		{"time.Time", time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), DateOf(2024, time.May, 2)},
		{"纯日期字符串", "2024-05-02", DateOf(2024, time.May, 2)},
		{"字节", []byte("2024-05-02"), DateOf(2024, time.May, 2)},
		{"sqlite 时间文本", "2024-05-02 00:00:00+00:00", DateOf(2024, time.May, 2)},
		{"RFC3339", "2024-05-02T00:00:00Z", DateOf(2024, time.May, 2)},
		{"空值", nil, Date{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.value))
			assert.Equal(t, tt.want, d)
		})
	}

	var d Date
	assert.Error(t, d.Scan("not a date"))
	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := DateOf(2024, time.May, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.May, 2, 0, 0, 0, 0, time.UTC), v)

	v, err = Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestDate_GormRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&RevenueRecord{}, &MaintenanceRecord{}))

	rec := RevenueRecord{ResortID: 1, AssetCategory: AssetCategoryATV, Date: DateOf(2024, time.March, 15), Amount: 100}
	require.NoError(t, db.Create(&rec).Error)

	var got RevenueRecord
	require.NoError(t, db.First(&got, rec.ID).Error)
	assert.Equal(t, DateOf(2024, time.March, 15), got.Date)

	var inRange int64
	require.NoError(t, db.Model(&RevenueRecord{}).
		Where("date >= ? AND date <= ?", DateOf(2024, time.March, 15), DateOf(2024, time.March, 31)).
		Count(&inRange).Error)
	assert.Equal(t, int64(1), inRange)

	end := DateOf(2024, time.April, 2)
	m := MaintenanceRecord{AssetID: 1, LaborCost: 10, StartDate: DateOf(2024, time.April, 1), EndDate: &end}
	require.NoError(t, db.Create(&m).Error)

	var gotM MaintenanceRecord
	require.NoError(t, db.First(&gotM, m.ID).Error)
	assert.Equal(t, DateOf(2024, time.April, 1), gotM.StartDate)
	require.NotNil(t, gotM.EndDate)
	assert.Equal(t, end, *gotM.EndDate)

	data, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"date":"2024-03-15"`)
}
